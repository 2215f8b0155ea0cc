package app

import (
	"context"

	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/akolanti/GoRAG/internal/rag/ingest"
)

// The methods below are what ragctl drives. Indexing runs inline rather
// than through the job queue.

func (a *App) Answer(ctx context.Context, question, language string) (ragModel.RAGQuery, error) {
	return a.RAG.Answer(ctx, question, language)
}

func (a *App) Health(ctx context.Context) ragModel.IndexHealth {
	return a.RAG.Health(ctx)
}

func (a *App) Analytics(ctx context.Context) (ragModel.Analytics, error) {
	return a.RAG.Analytics(ctx)
}

func (a *App) IndexDocument(ctx context.Context, documentId int64) (ingest.Result, error) {
	return a.Indexer.ProcessDocument(ctx, documentId, nil)
}

func (a *App) RetractDocument(ctx context.Context, documentId int64) error {
	return a.Indexer.RetractDocument(ctx, documentId)
}

func (a *App) IndexAll(ctx context.Context) (ingest.SyncSummary, error) {
	return a.Indexer.SyncAll(ctx)
}

// ResetIndex drops every chunk. Cached answers die with the old index
// version.
func (a *App) ResetIndex(ctx context.Context) error {
	return a.chunks.Reset(ctx)
}
