package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errRateLimited = errors.New("rate limited")

func TestWithRetry(t *testing.T) {
	isRateLimit := func(err error) bool { return errors.Is(err, errRateLimited) }

	t.Run("retries rate limits until success", func(t *testing.T) {
		attempts := 0
		got, err := WithRetry(context.Background(), func() (int, error) {
			attempts++
			if attempts < 3 {
				return 0, errRateLimited
			}
			return 42, nil
		}, isRateLimit)
		assert.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 3, attempts)
	})

	t.Run("permanent errors stop immediately", func(t *testing.T) {
		attempts := 0
		boom := errors.New("invalid argument")
		_, err := WithRetry(context.Background(), func() (int, error) {
			attempts++
			return 0, boom
		}, isRateLimit)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, attempts)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		attempts := 0
		_, err := WithRetry(ctx, func() (int, error) {
			attempts++
			return 0, errRateLimited
		}, isRateLimit)
		assert.Error(t, err)
		assert.LessOrEqual(t, attempts, 1)
	})
}
