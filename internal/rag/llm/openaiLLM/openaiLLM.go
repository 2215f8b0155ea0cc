// Package openaiLLM generates answers through an OpenAI-compatible chat
// completions endpoint.
package openaiLLM

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/rag/llm"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	HTTPClient  *http.Client
}

type llmClient struct {
	api         openai.Client
	model       string
	temperature float64
	logger      *logger_i.Logger
}

func New(opts Options) (llm.Provider, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai generation: no API key configured")
	}
	requestOptions := []option.RequestOption{option.WithAPIKey(opts.APIKey), option.WithMaxRetries(1)}
	if opts.BaseURL != "" {
		requestOptions = append(requestOptions, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		requestOptions = append(requestOptions, option.WithHTTPClient(opts.HTTPClient))
	}
	logger := logger_i.NewLogger("llm_openai")
	logger.Info("OpenAI chat client created", "model", opts.Model)
	return &llmClient{
		api:         openai.NewClient(requestOptions...),
		model:       opts.Model,
		temperature: float64(opts.Temperature),
		logger:      logger,
	}, nil
}

func (c *llmClient) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(config.ModelContext),
			openai.UserMessage(llm.BuildPrompt(req)),
		},
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		c.logger.WithContext(ctx).Error("OpenAI generation failed", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai generation: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
