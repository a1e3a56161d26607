package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/gu-migration-tracker/internal/config"
	"github.com/feral-file/gu-migration-tracker/internal/domain"
)

var retryConfig = config.FetchConfig{
	Timeout:         time.Second,
	InitialInterval: time.Millisecond,
	MaxInterval:     2 * time.Millisecond,
	MaxAttempts:     4,
}

func TestFetchWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after transient errors", func(t *testing.T) {
		calls := 0
		result, err := fetchWithRetry(ctx, retryConfig, "test", func(ctx context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, domain.ErrRateLimited
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, result)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausted retries wrap transient fetch", func(t *testing.T) {
		calls := 0
		_, err := fetchWithRetry(ctx, retryConfig, "test", func(ctx context.Context) (int, error) {
			calls++
			return 0, domain.ErrUnavailable
		})
		assert.ErrorIs(t, err, domain.ErrTransientFetch)
		assert.ErrorIs(t, err, domain.ErrUnavailable)
		assert.Equal(t, 4, calls)
	})

	t.Run("permanent errors are not retried", func(t *testing.T) {
		calls := 0
		_, err := fetchWithRetry(ctx, retryConfig, "test", func(ctx context.Context) (int, error) {
			calls++
			return 0, domain.ErrNotFound
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.False(t, errors.Is(err, domain.ErrTransientFetch))
		assert.Equal(t, 1, calls)
	})

	t.Run("timeout wraps transient fetch", func(t *testing.T) {
		cfg := retryConfig
		cfg.Timeout = 20 * time.Millisecond
		cfg.MaxAttempts = 0

		_, err := fetchWithRetry(ctx, cfg, "test", func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})
		assert.ErrorIs(t, err, domain.ErrTransientFetch)
	})

	t.Run("caller cancellation is returned as is", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := fetchWithRetry(cancelCtx, retryConfig, "test", func(ctx context.Context) (int, error) {
			return 0, domain.ErrUnavailable
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, errors.Is(err, domain.ErrTransientFetch))
	})
}
