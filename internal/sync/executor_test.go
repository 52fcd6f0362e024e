package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkarpenko/placesync/internal/entities"
)

// flakyWriter fails with transient errors a configured number of times
// before committing.
type flakyWriter struct {
	failures int
	calls    int
	seenSets []RecordSet
}

func (w *flakyWriter) ApplyAtomic(ctx context.Context, accountID string, userID uint, set RecordSet) (*TransactionResult, error) {
	w.calls++
	w.seenSets = append(w.seenSets, set)
	if w.calls <= w.failures {
		return nil, &RetryableError{Err: errors.New("database is locked")}
	}
	return &TransactionResult{
		SyncID:          "canonical-1",
		LocationsSynced: len(set.Locations),
		ReviewsSynced:   len(set.Reviews),
	}, nil
}

func TestExecutor_RetriesThenSucceeds(t *testing.T) {
	writer := &flakyWriter{failures: 2}
	executor := NewExecutor(writer, 3)
	executor.backoff = time.Millisecond

	result, err := executor.Apply(context.Background(), "acc-1", 1, RecordSet{})
	require.NoError(t, err)
	assert.Equal(t, "canonical-1", result.SyncID)
	assert.Equal(t, 3, writer.calls)
}

func TestExecutor_ExhaustsBudget(t *testing.T) {
	writer := &flakyWriter{failures: 10}
	executor := NewExecutor(writer, 3)
	executor.backoff = time.Millisecond

	_, err := executor.Apply(context.Background(), "acc-1", 1, RecordSet{})
	require.Error(t, err)

	var txErr *TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, 3, txErr.Attempts)
	assert.Equal(t, 3, writer.calls)
}

// rejectingWriter fails with a permanent validation error.
type rejectingWriter struct {
	calls int
}

func (w *rejectingWriter) ApplyAtomic(ctx context.Context, accountID string, userID uint, set RecordSet) (*TransactionResult, error) {
	w.calls++
	return nil, errors.New("location record missing external id")
}

func TestExecutor_MalformedInputDoesNotConsumeBudget(t *testing.T) {
	writer := &rejectingWriter{}
	executor := NewExecutor(writer, 3)
	executor.backoff = time.Millisecond

	_, err := executor.Apply(context.Background(), "acc-1", 1, RecordSet{})
	require.Error(t, err)

	var txErr *TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, 1, txErr.Attempts)
	assert.Equal(t, 1, writer.calls)
}

func TestExecutor_ReusesIdenticalRecordSet(t *testing.T) {
	writer := &flakyWriter{failures: 2}
	executor := NewExecutor(writer, 3)
	executor.backoff = time.Millisecond

	set := RecordSet{
		Locations: []entities.Location{{ExternalID: "accounts/1/locations/1"}},
		Reviews:   []entities.Review{{ExternalID: "r-1"}, {ExternalID: "r-2"}},
	}

	result, err := executor.Apply(context.Background(), "acc-1", 1, set)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ReviewsSynced)

	// Fetchers are not re-run between attempts; every attempt sees the
	// same record set.
	require.Len(t, writer.seenSets, 3)
	for _, seen := range writer.seenSets {
		assert.Equal(t, set.Locations, seen.Locations)
		assert.Equal(t, set.Reviews, seen.Reviews)
	}
}

func TestNewExecutor_DefaultAttempts(t *testing.T) {
	executor := NewExecutor(&rejectingWriter{}, 0)
	assert.Equal(t, DefaultMaxAttempts, executor.maxAttempts)
}
