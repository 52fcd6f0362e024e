package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/vkarpenko/placesync/internal/database/syncruns"
	syncpkg "github.com/vkarpenko/placesync/internal/sync"
)

// SyncAccountTask runs one full listing sync for a single account. The
// optional stage flags are snapshotted at enqueue time so a settings change
// mid-queue does not alter an already requested run.
type SyncAccountTask struct {
	AccountID        string `json:"account_id"`
	UserID           uint   `json:"user_id"`
	IncludeQuestions bool   `json:"include_questions"`
	IncludePosts     bool   `json:"include_posts"`
	IncludeMedia     bool   `json:"include_media"`
}

// Config returns the queue configuration for account sync tasks.
func (t SyncAccountTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "sync_account",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     15 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SyncAccountProcessor creates a processor function for SyncAccountTask.
// A run already in flight for the account is skipped without error so the
// queue's retry machinery is reserved for real failures.
func SyncAccountProcessor(orchestrator *syncpkg.Orchestrator, runs *syncruns.Repository) backlite.QueueProcessor[SyncAccountTask] {
	return func(ctx context.Context, task SyncAccountTask) error {
		if orchestrator == nil {
			return fmt.Errorf("sync orchestrator not configured")
		}

		if runs != nil {
			active, err := runs.IsRunActive(task.AccountID)
			if err != nil {
				return fmt.Errorf("check running sync for account %s: %w", task.AccountID, err)
			}
			if active {
				log.Printf("[TASK] Account %s: sync already running, skipping", task.AccountID)
				return nil
			}
		}

		opts := syncpkg.Options{
			IncludeQuestions: task.IncludeQuestions,
			IncludePosts:     task.IncludePosts,
			IncludeMedia:     task.IncludeMedia,
		}

		result, err := orchestrator.Run(ctx, task.AccountID, task.UserID, opts)
		if err != nil {
			return fmt.Errorf("sync account %s: %w", task.AccountID, err)
		}

		log.Printf("[TASK] Account %s: synced %d locations and %d reviews (sync %s)",
			task.AccountID, result.LocationsSynced, result.ReviewsSynced, result.SyncID)
		return nil
	}
}

// NewSyncAccountQueue creates a backlite queue for account sync tasks.
func NewSyncAccountQueue(orchestrator *syncpkg.Orchestrator, runs *syncruns.Repository) backlite.Queue {
	return backlite.NewQueue(SyncAccountProcessor(orchestrator, runs))
}
