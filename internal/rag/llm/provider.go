package llm

import (
	"context"
	"fmt"

	"github.com/akolanti/GoRAG/internal/domain/capability"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

// GenerateRequest carries the question and the ranked context passages.
type GenerateRequest struct {
	Question string
	Language string
	Passages []string
}

type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

type Capability = capability.Capability[Provider]

type Loader func(ctx context.Context) (Provider, error)

// Load constructs the generation client once. Unlike embeddings there is
// no probe call, since generation is billed per request.
func Load(ctx context.Context, name string, loader Loader) Capability {
	log := logger_i.NewLogger("llm").With("provider", name)
	p, err := loader(ctx)
	if err != nil {
		log.Error("Generation client failed to load", "error", err)
		return capability.Unavailable[Provider](fmt.Sprintf("%s generator failed to load: %v", name, err))
	}
	log.Info("Generation client loaded")
	return capability.Available(p)
}
