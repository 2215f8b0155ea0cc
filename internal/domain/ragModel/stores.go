package ragModel

import (
	"context"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
)

// ChunkStore is the durable vector index. Every failure to reach the backing
// store wraps ErrStoreUnavailable; an empty index is not an error.
type ChunkStore interface {
	UpsertChunks(ctx context.Context, doc IndexedDocument, chunks []DocumentChunk) error
	Search(ctx context.Context, queryVector []float32, topK int) ([]ScoredChunk, error)
	DeleteDocument(ctx context.Context, documentId int64) error
	CountChunks(ctx context.Context) (int64, error)
	IndexedDocuments(ctx context.Context) (map[int64]IndexedDocument, error)
	// TouchDocument marks an unchanged document as checked at indexedAt.
	TouchDocument(ctx context.Context, documentId int64, indexedAt time.Time) error
	IndexVersion(ctx context.Context) (int64, error)
}

// QueryLog records answered questions and the feedback attached to them.
type QueryLog interface {
	Record(ctx context.Context, query RAGQuery) (int64, error)
	AttachFeedback(ctx context.Context, queryId int64, feedback Feedback) error
	Get(ctx context.Context, queryId int64) (RAGQuery, error)
	Analytics(ctx context.Context) (Analytics, error)
	LastQueryAt(ctx context.Context) (*time.Time, error)
}

// DocumentSource is the read-only view of approved platform documents.
type DocumentSource interface {
	GetApprovedDocument(ctx context.Context, documentId int64) (commonModels.SourceDocument, error)
	ListApprovedDocuments(ctx context.Context) ([]commonModels.SourceDocumentInfo, error)
}

// AnswerCache short-circuits questions that were already answered against
// the same index version.
type AnswerCache interface {
	Lookup(ctx context.Context, vector []float32, language string, indexVersion int64) (RAGQuery, bool)
	Store(ctx context.Context, vector []float32, indexVersion int64, query RAGQuery) error
}
