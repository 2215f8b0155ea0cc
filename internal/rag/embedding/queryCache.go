package embedding

import (
	"context"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedEmbedder memoises single-text embeddings, which is the shape of every
// question lookup. Batch calls from indexing pass straight through. Cached
// vectors are copied in and out so callers may modify what they get.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

func NewCachedEmbedder(inner Embedder, size int) (*CachedEmbedder, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) != 1 {
		return c.inner.Embed(ctx, texts)
	}
	if v, ok := c.cache.Get(texts[0]); ok {
		return [][]float32{slices.Clone(v)}, nil
	}
	vectors, err := c.inner.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 1 && len(vectors[0]) == c.inner.Dimension() {
		c.cache.Add(texts[0], slices.Clone(vectors[0]))
	}
	return vectors, nil
}

func (c *CachedEmbedder) Dimension() int {
	return c.inner.Dimension()
}
