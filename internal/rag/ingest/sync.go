package ingest

import (
	"context"
)

// SyncSummary counts what a full synchronous pass did.
type SyncSummary struct {
	Indexed   int
	Unchanged int
	Retracted int
	Failed    map[int64]error
}

// SyncAll brings the index in line with the approved documents in the
// calling goroutine. Retractions run first. A failing document is recorded
// and the pass continues; only listing failures abort it.
func (ix *Indexer) SyncAll(ctx context.Context) (SyncSummary, error) {
	summary := SyncSummary{Failed: map[int64]error{}}
	pending, err := ix.PendingDocuments(ctx)
	if err != nil {
		return summary, err
	}

	for _, id := range pending.ToRetract {
		if err := ix.RetractDocument(ctx, id); err != nil {
			summary.Failed[id] = err
			continue
		}
		summary.Retracted++
	}
	for _, id := range pending.ToIndex {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		res, err := ix.ProcessDocument(ctx, id, nil)
		if err != nil {
			ix.logger.WithContext(ctx).Warn("Document failed during sync", "documentId", id, "error", err)
			summary.Failed[id] = err
			continue
		}
		switch res.Status {
		case ResultIndexed:
			summary.Indexed++
		case ResultUnchanged:
			summary.Unchanged++
		case ResultRetracted:
			summary.Retracted++
		}
	}
	return summary, nil
}
