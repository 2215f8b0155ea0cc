package docsource

import (
	"context"
	"fmt"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
)

// Unconfigured stands in when no platform database is set. Questions still
// work against whatever is already indexed; indexing fails as unavailable.
type Unconfigured struct {
	Reason string
}

func (u Unconfigured) GetApprovedDocument(ctx context.Context, documentId int64) (commonModels.SourceDocument, error) {
	return commonModels.SourceDocument{}, fmt.Errorf("%w: %s", ragModel.ErrStoreUnavailable, u.Reason)
}

func (u Unconfigured) ListApprovedDocuments(ctx context.Context) ([]commonModels.SourceDocumentInfo, error) {
	return nil, fmt.Errorf("%w: %s", ragModel.ErrStoreUnavailable, u.Reason)
}
