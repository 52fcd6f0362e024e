package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// defaultMetricsRetentionDays keeps enough history for the 90-day summary
// window served by the metrics API.
const defaultMetricsRetentionDays = 90

// SyncMetricsCleaner deletes sync metric samples recorded before a cutoff.
type SyncMetricsCleaner interface {
	DeleteOldMetrics(olderThan time.Time) (int64, error)
}

// CleanupSyncMetricsTask removes sync metrics older than the configured retention period.
type CleanupSyncMetricsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for metrics cleanup tasks.
func (t CleanupSyncMetricsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_sync_metrics",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupSyncMetricsProcessor creates a processor function for CleanupSyncMetricsTask.
func CleanupSyncMetricsProcessor(cleaner SyncMetricsCleaner) backlite.QueueProcessor[CleanupSyncMetricsTask] {
	return func(ctx context.Context, task CleanupSyncMetricsTask) error {
		if cleaner == nil {
			return fmt.Errorf("sync metrics cleaner not configured")
		}

		days := task.RetentionDays
		if days <= 0 {
			days = defaultMetricsRetentionDays
		}
		cutoff := time.Now().AddDate(0, 0, -days)

		deleted, err := cleaner.DeleteOldMetrics(cutoff)
		if err != nil {
			return fmt.Errorf("cleanup sync metrics: %w", err)
		}

		log.Printf("[TASK] Pruned %d sync metric samples older than %d days", deleted, days)
		return nil
	}
}

// NewCleanupSyncMetricsQueue creates a backlite queue for metrics cleanup tasks.
func NewCleanupSyncMetricsQueue(cleaner SyncMetricsCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupSyncMetricsProcessor(cleaner))
}
