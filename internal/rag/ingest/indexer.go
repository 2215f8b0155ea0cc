// Package ingest turns approved documents into indexed chunks.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/akolanti/GoRAG/internal/rag/chunker"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

type ResultStatus string

const (
	ResultIndexed   ResultStatus = "indexed"
	ResultUnchanged ResultStatus = "unchanged"
	ResultRetracted ResultStatus = "retracted"
)

type Result struct {
	Status     ResultStatus
	ChunkCount int
}

// Progress receives each pipeline step as it starts. It may be nil.
type Progress func(step jobModel.InternalStatus)

// Pending lists the documents whose index entry is missing, stale or no
// longer backed by an approved document.
type Pending struct {
	ToIndex   []int64
	ToRetract []int64
}

type Indexer struct {
	source   ragModel.DocumentSource
	store    ragModel.ChunkStore
	embedder embedding.Capability
	chunker  *chunker.Chunker
	locks    *documentLocks
	extract  func(path string) (string, error)
	logger   *logger_i.Logger

	// embedTimeout bounds the embedding of one document.
	embedTimeout time.Duration
}

func NewIndexer(source ragModel.DocumentSource, store ragModel.ChunkStore, embedder embedding.Capability, c *chunker.Chunker) *Indexer {
	return &Indexer{
		source:   source,
		store:    store,
		embedder: embedder,
		chunker:  c,
		locks:    newDocumentLocks(),
		extract:  ExtractText,
		logger:   logger_i.NewLogger("indexer"),

		embedTimeout: config.IndexEmbedTimeout,
	}
}

// ProcessDocument (re)indexes one document. It is idempotent: an unchanged
// document is left alone and a document that is no longer approved is
// removed from the index.
func (ix *Indexer) ProcessDocument(ctx context.Context, documentId int64, progress Progress) (Result, error) {
	log := ix.logger.WithContext(ctx).With("documentId", documentId)
	report := func(step jobModel.InternalStatus) {
		log.Debug("Index step", "step", step)
		if progress != nil {
			progress(step)
		}
	}

	unlock := ix.locks.Lock(documentId)
	defer unlock()

	report(jobModel.Fetching)
	fetchCtx, cancel := context.WithTimeout(ctx, config.DocumentSourceTimeout)
	doc, err := ix.source.GetApprovedDocument(fetchCtx, documentId)
	cancel()
	if errors.Is(err, ragModel.ErrNotFound) {
		report(jobModel.Retracting)
		if err := ix.store.DeleteDocument(ctx, documentId); err != nil {
			return Result{}, err
		}
		log.Info("Document not approved, removed from index")
		return Result{Status: ResultRetracted}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("fetch document %d: %w", documentId, err)
	}

	text := doc.Text
	if strings.TrimSpace(text) == "" && doc.FilePath != "" {
		report(jobModel.Extracting)
		text, err = ix.extract(doc.FilePath)
		if err != nil {
			return Result{}, err
		}
	}

	hash := contentHash(doc, text)
	indexed, err := ix.store.IndexedDocuments(ctx)
	if err != nil {
		return Result{}, err
	}
	if prev, ok := indexed[documentId]; ok && prev.ContentHash == hash {
		if err := ix.store.TouchDocument(ctx, documentId, time.Now()); err != nil {
			return Result{}, err
		}
		log.Info("Document unchanged, skipping")
		return Result{Status: ResultUnchanged, ChunkCount: prev.ChunkCount}, nil
	}

	report(jobModel.Chunking)
	chunks := ix.chunker.Chunk(documentId, text)

	if len(chunks) > 0 {
		report(jobModel.Embedding)
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		embedCtx, cancel := context.WithTimeout(ctx, ix.embedTimeout)
		vectors, err := embedding.Embed(embedCtx, ix.embedder, texts)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return Result{}, fmt.Errorf("%w: embedding document %d took longer than %s: %w", ragModel.ErrTimeout, documentId, ix.embedTimeout, err)
			}
			return Result{}, fmt.Errorf("embed document %d: %w", documentId, err)
		}
		now := time.Now()
		for i := range chunks {
			chunks[i].Vector = vectors[i]
			chunks[i].CreatedAt = now
		}
	}

	report(jobModel.Storing)
	err = ix.store.UpsertChunks(ctx, ragModel.IndexedDocument{
		DocumentId:  documentId,
		Title:       doc.Title,
		Country:     doc.Country,
		ContentHash: hash,
		ChunkCount:  len(chunks),
		IndexedAt:   time.Now(),
	}, chunks)
	if err != nil {
		return Result{}, err
	}
	log.Info("Document indexed", "chunks", len(chunks))
	return Result{Status: ResultIndexed, ChunkCount: len(chunks)}, nil
}

// RetractDocument removes a document from the index.
func (ix *Indexer) RetractDocument(ctx context.Context, documentId int64) error {
	unlock := ix.locks.Lock(documentId)
	defer unlock()
	return ix.store.DeleteDocument(ctx, documentId)
}

// PendingDocuments compares the approved documents with the index.
func (ix *Indexer) PendingDocuments(ctx context.Context) (Pending, error) {
	listCtx, cancel := context.WithTimeout(ctx, config.DocumentSourceTimeout)
	defer cancel()
	approved, err := ix.source.ListApprovedDocuments(listCtx)
	if err != nil {
		return Pending{}, fmt.Errorf("list approved documents: %w", err)
	}
	indexed, err := ix.store.IndexedDocuments(ctx)
	if err != nil {
		return Pending{}, err
	}

	var pending Pending
	seen := make(map[int64]bool, len(approved))
	for _, d := range approved {
		seen[d.Id] = true
		prev, ok := indexed[d.Id]
		if !ok || d.UpdatedAt.After(prev.IndexedAt) {
			pending.ToIndex = append(pending.ToIndex, d.Id)
		}
	}
	for id := range indexed {
		if !seen[id] {
			pending.ToRetract = append(pending.ToRetract, id)
		}
	}
	sort.Slice(pending.ToIndex, func(i, j int) bool { return pending.ToIndex[i] < pending.ToIndex[j] })
	sort.Slice(pending.ToRetract, func(i, j int) bool { return pending.ToRetract[i] < pending.ToRetract[j] })
	return pending, nil
}

// ClassifyError maps a pipeline error onto the code recorded on the job.
func ClassifyError(err error) jobModel.JobError {
	jobErr := jobModel.JobError{Message: err.Error()}
	switch {
	case errors.Is(err, ragModel.ErrTimeout):
		jobErr.Code, jobErr.Retry = jobModel.ErrCodeEmbedderUnavailable, true
	case errors.Is(err, ragModel.ErrUnavailable):
		jobErr.Code = jobModel.ErrCodeEmbedderUnavailable
	case errors.Is(err, ragModel.ErrDimensionMismatch):
		jobErr.Code = jobModel.ErrCodeDimensionMismatch
	case errors.Is(err, ragModel.ErrStoreUnavailable):
		jobErr.Code, jobErr.Retry = jobModel.ErrCodeStoreUnavailable, true
	case errors.Is(err, ragModel.ErrNotFound):
		jobErr.Code = jobModel.ErrCodeNotFound
	case errors.Is(err, ErrExtractionFailed):
		jobErr.Code = jobModel.ErrCodeExtractionFailed
	default:
		jobErr.Code, jobErr.Retry = jobModel.ErrCodeInternal, true
	}
	return jobErr
}

// contentHash covers everything that ends up in the index for a document.
func contentHash(doc commonModels.SourceDocument, text string) string {
	h := sha256.New()
	h.Write([]byte(doc.Title))
	h.Write([]byte{0})
	h.Write([]byte(doc.Country))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
