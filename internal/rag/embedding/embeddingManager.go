package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/capability"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

// Embedder turns texts into vectors of a fixed dimension. Implementations
// are safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

type Capability = capability.Capability[Embedder]

// QueryEmbedder is implemented by embedders whose model distinguishes
// questions from the documents they are matched against.
type QueryEmbedder interface {
	ForQueries() Embedder
}

// ForQueries returns the question side of e, or e itself when the model
// makes no distinction.
func ForQueries(e Embedder) Embedder {
	if q, ok := e.(QueryEmbedder); ok {
		return q.ForQueries()
	}
	return e
}

// Loader builds an embedder. It is called once per process.
type Loader func(ctx context.Context) (Embedder, error)

// Load builds the embedder and probes it once. Any failure leaves the
// embedder unavailable for the rest of the process lifetime.
func Load(ctx context.Context, name string, loader Loader) Capability {
	log := logger_i.NewLogger("embedding").With("provider", name)

	e, err := loader(ctx)
	if err != nil {
		log.Error("Embedding model failed to load", "error", err)
		return capability.Unavailable[Embedder](fmt.Sprintf("%s embedder failed to load: %v", name, err))
	}

	probeCtx, cancel := context.WithTimeout(ctx, config.ProbeTimeout)
	defer cancel()
	start := time.Now()
	if _, err := checked(probeCtx, e, []string{config.EmbeddingProbeText}); err != nil {
		log.Error("Embedding probe failed", "error", err)
		return capability.Unavailable[Embedder](fmt.Sprintf("%s embedder probe failed: %v", name, err))
	}
	log.Info("Embedding model loaded", "dimension", e.Dimension(), "probe", time.Since(start))
	return capability.Available(e)
}

// Embed embeds texts when the capability is available and guarantees that
// every vector has the embedder's dimension.
func Embed(ctx context.Context, c Capability, texts []string) ([][]float32, error) {
	e, ok := c.Get()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ragModel.ErrUnavailable, c.Reason())
	}
	return checked(ctx, e, texts)
}

func checked(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := e.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}
	for i, v := range vectors {
		if len(v) != e.Dimension() {
			return nil, fmt.Errorf("%w: vector %d has %d values, index expects %d", ragModel.ErrDimensionMismatch, i, len(v), e.Dimension())
		}
	}
	return vectors, nil
}

// Batches splits texts into consecutive groups of at most size.
func Batches(texts []string, size int) [][]string {
	if size <= 0 {
		size = config.EmbeddingBatchSize
	}
	batches := make([][]string, 0, len(texts)/size+1)
	for i := 0; i < len(texts); i += size {
		end := min(i+size, len(texts))
		batches = append(batches, texts[i:end])
	}
	return batches
}
