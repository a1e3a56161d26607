package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/gu-migration-tracker/internal/config"
	"github.com/feral-file/gu-migration-tracker/internal/domain"
	"github.com/feral-file/gu-migration-tracker/internal/logger"
)

// fetchWithRetry runs fn with exponential backoff under the hard fetch timeout.
// Only rate limited and unavailable errors are retried. When the retries are
// exhausted or the timeout expires the error wraps domain.ErrTransientFetch.
func fetchWithRetry[T any](ctx context.Context, cfg config.FetchConfig, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	fetchCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialInterval
	b.MaxInterval = cfg.MaxInterval
	b.MaxElapsedTime = 0 // bounded by the fetch timeout and attempts
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	var policy backoff.BackOff = b
	if cfg.MaxAttempts > 0 {
		policy = backoff.WithMaxRetries(b, cfg.MaxAttempts-1)
	}

	operation := func() (T, error) {
		result, err := fn(fetchCtx)
		if err != nil && !domain.IsRetryable(err) {
			return zero, backoff.Permanent(err)
		}
		return result, err
	}

	var attemptCount int
	notifyOnError := func(err error, next time.Duration) {
		attemptCount++
		logger.WarnCtx(ctx, "Fetch failed, retrying",
			zap.String("fetch", name),
			zap.Error(err),
			zap.Int("attempt", attemptCount),
			zap.Duration("next_retry_in", next),
		)
	}

	result, err := backoff.RetryNotifyWithData(operation, backoff.WithContext(policy, fetchCtx), notifyOnError)
	if err == nil {
		return result, nil
	}

	// The caller gave up, do not disguise it as a transient upstream failure
	if ctx.Err() != nil {
		return zero, ctx.Err()
	}
	if domain.IsRetryable(err) || errors.Is(err, context.DeadlineExceeded) {
		return zero, fmt.Errorf("%w: %s failed after %d attempts: %w", domain.ErrTransientFetch, name, attemptCount+1, err)
	}
	return zero, fmt.Errorf("%s: %w", name, err)
}
