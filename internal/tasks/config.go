package tasks

import "time"

// Config tunes the task queue workers and retention behavior.
type Config struct {
	// Workers is the number of concurrent task workers.
	Workers int

	// MaxRetries bounds retry attempts for tasks without their own limit.
	MaxRetries int

	// RetryDelay is the default backoff between retry attempts.
	RetryDelay time.Duration

	// TaskTimeout is the default per-task execution timeout.
	TaskTimeout time.Duration

	// ReleaseAfter controls when a claimed but unfinished task is handed
	// back to the queue, e.g. after a crashed worker.
	ReleaseAfter time.Duration

	// CleanupInterval is how often completed tasks are purged.
	CleanupInterval time.Duration

	// RetentionDuration is how long completed tasks are kept for inspection.
	RetentionDuration time.Duration
}

// DefaultConfig returns the queue defaults used when no overrides are set.
func DefaultConfig() Config {
	return Config{
		Workers:           2,
		MaxRetries:        3,
		RetryDelay:        time.Minute,
		TaskTimeout:       5 * time.Minute,
		ReleaseAfter:      15 * time.Minute,
		CleanupInterval:   time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}
