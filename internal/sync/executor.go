package sync

import (
	"context"
	"time"
)

const (
	// DefaultMaxAttempts bounds the whole-apply retry budget.
	DefaultMaxAttempts = 3

	// defaultRetryBackoff is the fixed delay between apply attempts. The
	// window is short on purpose: the only retried condition is storage
	// contention, which clears quickly or not at all.
	defaultRetryBackoff = 250 * time.Millisecond
)

// Executor applies the full record set of one run as a single atomic
// operation, retrying the whole apply on transient storage contention. The
// record set is fetched once and reused verbatim across attempts.
type Executor struct {
	writer      TransactionalWriter
	maxAttempts int
	backoff     time.Duration
}

// NewExecutor creates an executor over the given writer. maxAttempts <= 0
// falls back to DefaultMaxAttempts.
func NewExecutor(writer TransactionalWriter, maxAttempts int) *Executor {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Executor{
		writer:      writer,
		maxAttempts: maxAttempts,
		backoff:     defaultRetryBackoff,
	}
}

// Apply writes the record set atomically. Malformed input fails on the
// first attempt without consuming retry budget; only contention-class
// errors wrapped in RetryableError are retried. When the budget exhausts
// the last error is returned as a TransactionError.
func (e *Executor) Apply(ctx context.Context, accountID string, userID uint, set RecordSet) (*TransactionResult, error) {
	attempts := 0
	result, err := WithRetries(ctx, e.maxAttempts, e.backoff, func(ctx context.Context) (*TransactionResult, error) {
		attempts++
		return e.writer.ApplyAtomic(ctx, accountID, userID, set)
	})
	if err != nil {
		return nil, &TransactionError{Attempts: attempts, Err: err}
	}
	return result, nil
}
