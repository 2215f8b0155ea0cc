package openaiLLM

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akolanti/GoRAG/internal/rag/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_AgainstCompatibleServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Contains(t, body.Messages[1].Content, "[1] the rate is 20%")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   body.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "  It is 20% [1].  "},
			}},
		})
	}))
	defer server.Close()

	p, err := New(Options{APIKey: "sk-test", BaseURL: server.URL, Model: "gpt-4o-mini", Temperature: 0.2})
	require.NoError(t, err)

	answer, err := p.Generate(context.Background(), llm.GenerateRequest{
		Question: "What is the rate?",
		Passages: []string{"the rate is 20%"},
	})
	require.NoError(t, err)
	assert.Equal(t, "It is 20% [1].", answer)
}

func TestGenerate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	p, err := New(Options{APIKey: "sk-test", BaseURL: server.URL, Model: "gpt-4o-mini"})
	require.NoError(t, err)
	_, err = p.Generate(context.Background(), llm.GenerateRequest{Question: "q"})
	assert.Error(t, err)
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(Options{Model: "gpt-4o-mini"})
	assert.Error(t, err)
}
