package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/ragModel"
)

// InMemoryQueryLog is used when Redis is offline. Records are lost on restart.
type InMemoryQueryLog struct {
	mu      sync.RWMutex
	seq     int64
	queries map[int64]ragModel.RAGQuery
	last    time.Time
}

func InitInMemoryQueryLog() *InMemoryQueryLog {
	return &InMemoryQueryLog{queries: make(map[int64]ragModel.RAGQuery)}
}

func (q *InMemoryQueryLog) Record(ctx context.Context, query ragModel.RAGQuery) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	query.Id = q.seq
	query.Feedback = nil
	query.States = nil
	q.queries[query.Id] = query
	if query.CreatedAt.After(q.last) {
		q.last = query.CreatedAt
	}
	return query.Id, nil
}

func (q *InMemoryQueryLog) AttachFeedback(ctx context.Context, queryId int64, feedback ragModel.Feedback) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	query, ok := q.queries[queryId]
	if !ok {
		return fmt.Errorf("query %d: %w", queryId, ragModel.ErrNotFound)
	}
	query.Feedback = &feedback
	q.queries[queryId] = query
	return nil
}

func (q *InMemoryQueryLog) Get(ctx context.Context, queryId int64) (ragModel.RAGQuery, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	query, ok := q.queries[queryId]
	if !ok {
		return ragModel.RAGQuery{}, fmt.Errorf("query %d: %w", queryId, ragModel.ErrNotFound)
	}
	return query, nil
}

func (q *InMemoryQueryLog) Analytics(ctx context.Context) (ragModel.Analytics, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	var confidenceSum, responseSum float64
	var helpful, notHelpful int64
	for _, query := range q.queries {
		confidenceSum += query.Confidence
		responseSum += float64(query.ResponseTimeMs)
		if query.Feedback == nil {
			continue
		}
		switch *query.Feedback {
		case ragModel.FeedbackHelpful:
			helpful++
		case ragModel.FeedbackNotHelpful:
			notHelpful++
		}
	}
	return buildAnalytics(int64(len(q.queries)), confidenceSum, responseSum, helpful, notHelpful), nil
}

func (q *InMemoryQueryLog) LastQueryAt(ctx context.Context) (*time.Time, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.last.IsZero() {
		return nil, nil
	}
	at := q.last
	return &at, nil
}
