package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/rag/llm"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"google.golang.org/genai"
)

type Options struct {
	APIKey      string
	Model       string
	Temperature float32
	HTTPClient  *http.Client
}

type llmClient struct {
	client      *genai.Client
	modelName   string
	temperature float32
	logger      *logger_i.Logger
}

func New(ctx context.Context, opts Options) (llm.Provider, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini: no API key configured")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	})
	if err != nil {
		return nil, err
	}
	logger := logger_i.NewLogger("llm_gemini")
	logger.Info("Gemini client created", "model", opts.Model)
	return &llmClient{client: c, modelName: opts.Model, temperature: opts.Temperature, logger: logger}, nil
}

func (c *llmClient) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	log := c.logger.WithContext(ctx)
	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: config.ModelContext}},
		},
		Temperature: genai.Ptr(c.temperature),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(llm.BuildPrompt(req)), contentConfig)
	if err != nil {
		log.Error("Gemini generation failed", "error", err)
		return "", err
	}
	if result == nil {
		return "", errors.New("gemini: empty response")
	}
	return strings.TrimSpace(result.Text()), nil
}
