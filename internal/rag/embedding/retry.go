package embedding

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	maxRetries      = 3
	initialInterval = 500 * time.Millisecond
	maxInterval     = 5 * time.Second
)

// WithRetry runs op and retries it with exponential backoff while retryable
// reports true. Other errors stop immediately.
func WithRetry[T any](ctx context.Context, op func() (T, error), retryable func(error) bool) (T, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = initialInterval
	policy.MaxInterval = maxInterval

	return backoff.RetryWithData(func() (T, error) {
		result, err := op()
		if err != nil && !retryable(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, maxRetries), ctx))
}
