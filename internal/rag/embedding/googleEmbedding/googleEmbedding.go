package googleEmbedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"google.golang.org/genai"
)

const (
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"
)

type Options struct {
	APIKey     string
	Model      string
	Dimension  int
	BatchSize  int
	HTTPClient *http.Client
}

type client struct {
	genAi     *genai.Client
	model     string
	dimension int32
	batchSize int
	taskType  string
	logger    *logger_i.Logger
}

// New builds a Gemini embedder. It does not call the API; embedding.Load
// probes it afterwards.
func New(ctx context.Context, opts Options) (embedding.Embedder, error) {
	if opts.APIKey == "" {
		return nil, errors.New("google embedding: no API key configured")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("google embedding client: %w", err)
	}
	logger := logger_i.NewLogger("google_embedding")
	logger.Info("Google Embedding client created", "model", opts.Model)
	return &client{
		genAi:     c,
		model:     opts.Model,
		dimension: int32(opts.Dimension),
		batchSize: opts.BatchSize,
		taskType:  taskDocument,
		logger:    logger,
	}, nil
}

// ForQueries returns an embedder sharing this client that embeds search
// questions rather than documents.
func (c *client) ForQueries() embedding.Embedder {
	q := *c
	q.taskType = taskQuery
	return &q
}

func (c *client) Dimension() int {
	return int(c.dimension)
}

// Embed sends texts in API-sized batches and returns the vectors in input
// order.
func (c *client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	log := c.logger.WithContext(ctx)
	results := make([][]float32, 0, len(texts))

	for _, batch := range embedding.Batches(texts, c.batchSize) {
		res, err := embedding.WithRetry(ctx, func() (*genai.EmbedContentResponse, error) {
			return c.doCall(ctx, getContent(batch))
		}, func(err error) bool { return doRetry(err, log) })
		if err != nil {
			log.Error("Error getting Embeddings from Google", "error", err, "batch", len(batch))
			return nil, err
		}
		if res == nil || len(res.Embeddings) != len(batch) {
			return nil, fmt.Errorf("google embedding: expected %d embeddings", len(batch))
		}
		for _, e := range res.Embeddings {
			if e == nil {
				return nil, errors.New("google embedding: empty embedding in response")
			}
			results = append(results, e.Values)
		}
	}
	log.Debug("Embedded texts", "count", len(results))
	return results, nil
}

func (c *client) doCall(ctx context.Context, content []*genai.Content) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{
		OutputDimensionality: &c.dimension,
		TaskType:             c.taskType,
	})
}
