// Package openaiEmbedding embeds text through any OpenAI-compatible
// embeddings endpoint.
package openaiEmbedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimension  int
	BatchSize  int
	HTTPClient *http.Client
}

type client struct {
	api       openai.Client
	model     string
	dimension int
	batchSize int
	logger    *logger_i.Logger
}

func New(opts Options) (embedding.Embedder, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai embedding: no API key configured")
	}
	requestOptions := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		requestOptions = append(requestOptions, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		requestOptions = append(requestOptions, option.WithHTTPClient(opts.HTTPClient))
	}
	// retries are handled by embedding.WithRetry
	requestOptions = append(requestOptions, option.WithMaxRetries(0))

	logger := logger_i.NewLogger("openai_embedding")
	logger.Info("OpenAI Embedding client created", "model", opts.Model)
	return &client{
		api:       openai.NewClient(requestOptions...),
		model:     opts.Model,
		dimension: opts.Dimension,
		batchSize: opts.BatchSize,
		logger:    logger,
	}, nil
}

func (c *client) Dimension() int {
	return c.dimension
}

func (c *client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	log := c.logger.WithContext(ctx)
	results := make([][]float32, 0, len(texts))

	for _, batch := range embedding.Batches(texts, c.batchSize) {
		resp, err := embedding.WithRetry(ctx, func() (*openai.CreateEmbeddingResponse, error) {
			return c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
				Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: batch},
				Model:      openai.EmbeddingModel(c.model),
				Dimensions: openai.Int(int64(c.dimension)),
			})
		}, isRetryable)
		if err != nil {
			log.Error("Error getting Embeddings from OpenAI", "error", err, "batch", len(batch))
			return nil, err
		}

		vectors, err := orderedVectors(resp.Data, len(batch))
		if err != nil {
			return nil, err
		}
		results = append(results, vectors...)
	}
	return results, nil
}

// orderedVectors places each embedding at its reported index and narrows it
// to float32.
func orderedVectors(data []openai.Embedding, expected int) ([][]float32, error) {
	if len(data) != expected {
		return nil, fmt.Errorf("openai embedding: expected %d embeddings, got %d", expected, len(data))
	}
	out := make([][]float32, expected)
	for _, d := range data {
		if d.Index < 0 || int(d.Index) >= expected || out[d.Index] != nil {
			return nil, fmt.Errorf("openai embedding: unexpected index %d", d.Index)
		}
		vector := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vector[i] = float32(v)
		}
		out[d.Index] = vector
	}
	return out, nil
}

func isRetryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable:
			return true
		}
	}
	return false
}
