package sync

import (
	"context"
	"time"
)

// WithRetries runs fn up to maxAttempts times, sleeping backoff between
// attempts. Only errors reporting Retryable() true consume retry budget;
// any other error is returned immediately. The context is checked before
// each wait so a cancelled run stops retrying.
func WithRetries[T any](ctx context.Context, maxAttempts int, backoff time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
			}
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, lastErr
}
