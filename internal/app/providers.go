package app

import (
	"context"
	"net/http"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/GoRAG/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/GoRAG/internal/rag/llm"
	"github.com/akolanti/GoRAG/internal/rag/llm/gemini"
	"github.com/akolanti/GoRAG/internal/rag/llm/openaiLLM"
)

func embeddingLoader(s *config.Settings, client *http.Client) embedding.Loader {
	e := s.Embedding
	return func(ctx context.Context) (embedding.Embedder, error) {
		if e.Provider == config.ProviderOpenAI {
			return openaiEmbedding.New(openaiEmbedding.Options{
				APIKey:     e.APIKey,
				BaseURL:    e.BaseURL,
				Model:      e.Model,
				Dimension:  e.Dimension,
				BatchSize:  e.BatchSize,
				HTTPClient: client,
			})
		}
		return googleEmbedding.New(ctx, googleEmbedding.Options{
			APIKey:     e.APIKey,
			Model:      e.Model,
			Dimension:  e.Dimension,
			BatchSize:  e.BatchSize,
			HTTPClient: client,
		})
	}
}

func generationLoader(s *config.Settings, client *http.Client) llm.Loader {
	g := s.Generation
	return func(ctx context.Context) (llm.Provider, error) {
		if g.Provider == config.ProviderOpenAI {
			return openaiLLM.New(openaiLLM.Options{
				APIKey:      g.APIKey,
				BaseURL:     g.BaseURL,
				Model:       g.Model,
				Temperature: g.Temperature,
				HTTPClient:  client,
			})
		}
		return gemini.New(ctx, gemini.Options{
			APIKey:      g.APIKey,
			Model:       g.Model,
			Temperature: g.Temperature,
			HTTPClient:  client,
		})
	}
}
