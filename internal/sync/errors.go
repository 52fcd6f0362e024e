package sync

import (
	"errors"
	"fmt"
)

// ErrAccountNotFound indicates the account is not connected or belongs to a
// different user. The run aborts before any provider traffic.
var ErrAccountNotFound = errors.New("account not found for user")

// AuthError wraps a token acquisition or refresh failure. The run aborts at
// the init stage and the underlying error is surfaced verbatim.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// TransactionError indicates every attempt of the atomic apply failed.
type TransactionError struct {
	Attempts int
	Err      error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// RetryableError marks a storage error as transient contention that is worth
// retrying. Anything not wrapped in it fails the apply immediately.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// Retryable implements the interface the retry combinator checks.
func (e *RetryableError) Retryable() bool {
	return true
}

// IsRetryable reports whether err is marked as worth retrying.
func IsRetryable(err error) bool {
	var r interface{ Retryable() bool }
	return errors.As(err, &r) && r.Retryable()
}
