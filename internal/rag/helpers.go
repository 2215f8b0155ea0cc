package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/internal/rag/llm"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

type stateTracker struct {
	states []ragModel.QueryState
	log    *logger_i.Logger
}

func newStateTracker(log *logger_i.Logger) *stateTracker {
	return &stateTracker{states: make([]ragModel.QueryState, 0, 7), log: log}
}

func (t *stateTracker) enter(state ragModel.QueryState) {
	t.states = append(t.states, state)
	t.log.Debug("Answer state", "state", state)
}

func (s *service) executeEmbeddingStep(ctx context.Context, question string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	ctx, cancel := context.WithTimeout(ctx, config.EmbeddingTimeout)
	defer cancel()
	vectors, err := embedding.Embed(ctx, s.embedder, []string{question})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (s *service) executeCacheCheckStep(ctx context.Context, vector []float32, language string, indexVersion int64) (ragModel.RAGQuery, bool) {
	if s.cache == nil {
		return ragModel.RAGQuery{}, false
	}
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("cache_lookup", time.Since(start)) }()

	return s.cache.Lookup(ctx, vector, language, indexVersion)
}

func (s *service) executeVectorSearchStep(ctx context.Context, vector []float32) ([]ragModel.ScoredChunk, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	ctx, cancel := context.WithTimeout(ctx, config.SearchTimeout)
	defer cancel()
	return s.store.Search(ctx, vector, s.topK)
}

func (s *service) executeLLMStep(ctx context.Context, req llm.GenerateRequest) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	provider, ok := s.generator.Get()
	if !ok {
		return "", fmt.Errorf("%w: %s", ragModel.ErrUnavailable, s.generator.Reason())
	}
	ctx, cancel := context.WithTimeout(ctx, s.generationTimeout)
	defer cancel()

	answer, err := provider.Generate(ctx, req)
	if err == nil && ctx.Err() != nil {
		// some clients return a partial result instead of the deadline error
		err = ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: generation exceeded %s: %w", ragModel.ErrTimeout, s.generationTimeout, err)
	}
	return answer, err
}

// executeQueryLogStep returns 0 when the record could not be written.
func (s *service) executeQueryLogStep(ctx context.Context, log *logger_i.Logger, q ragModel.RAGQuery) int64 {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("query_log", time.Since(start)) }()

	ctx, cancel := context.WithTimeout(ctx, config.QueryLogTimeout)
	defer cancel()
	id, err := s.queryLog.Record(ctx, q)
	if err != nil {
		log.Error("Recording query failed", "error", err)
		return 0
	}
	return id
}

func (s *service) saveToCache(ctx context.Context, vector []float32, indexVersion int64, q ragModel.RAGQuery) {
	if err := s.cache.Store(ctx, vector, indexVersion, q); err != nil {
		s.logger.WithContext(ctx).Warn("Failed to save answer to cache", "error", err)
	}
}

func isTimeout(err error) bool {
	return errors.Is(err, ragModel.ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

func degradedAnswer(outcome ragModel.Outcome) string {
	switch outcome {
	case ragModel.OutcomeEmbedderUnavailable:
		return "The question could not be processed because the document search service is currently unavailable. Please try again later."
	case ragModel.OutcomeStoreUnavailable:
		return "The document index cannot be searched right now. Please try again later."
	case ragModel.OutcomeNoContext:
		return "There is insufficient information in the published documents to answer this question."
	case ragModel.OutcomeGenerationTimeout:
		return "Related documents were found, but generating a summary took too long. Please review the sources listed."
	default:
		return "Related documents were found, but a summary could not be generated right now. Please review the sources listed."
	}
}
