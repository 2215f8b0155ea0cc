package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/sony/gobreaker"
)

// Breaker stops calling a generator that keeps failing and lets one trial
// request through after the open timeout.
type Breaker struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker
}

func NewBreaker(provider Provider) *Breaker {
	logger := logger_i.NewLogger("generator_breaker")
	settings := gobreaker.Settings{
		Name:        config.BreakerName,
		MaxRequests: config.BreakerHalfOpenRequests,
		Timeout:     config.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.BreakerConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up is not a generator failure
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &Breaker{provider: provider, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *Breaker) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.provider.Generate(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ragModel.ErrUnavailable, err)
	}
	if err != nil {
		return "", err
	}
	answer, _ := result.(string)
	return answer, nil
}

// Healthy is false while the breaker is open.
func (b *Breaker) Healthy() bool {
	return b.cb.State() != gobreaker.StateOpen
}

// Healthy reports whether generation can currently be attempted.
func Healthy(c Capability) bool {
	p, ok := c.Get()
	if !ok {
		return false
	}
	if h, ok := p.(interface{ Healthy() bool }); ok {
		return h.Healthy()
	}
	return true
}
