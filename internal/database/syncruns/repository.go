// Package syncruns persists the per-account sync status rows that the
// dashboard and the status API read. One row per account, reset at the start
// of every run; the transactional writer finalizes successful runs.
package syncruns

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/vkarpenko/placesync/internal/entities"
	syncpkg "github.com/vkarpenko/placesync/internal/sync"
)

// Repository handles all sync run status database operations.
type Repository struct {
	db *gorm.DB
}

var _ syncpkg.RunRecorder = (*Repository)(nil)

// NewRepository creates a new sync runs repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetRun retrieves the latest run status for an account.
func (r *Repository) GetRun(accountID string, userID uint) (*entities.SyncRecord, error) {
	var record entities.SyncRecord
	err := r.db.Where("account_id = ? AND user_id = ?", accountID, userID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// StartRun creates or resets the status row for an account at the beginning
// of a run. The provisional sync id is recorded; a successful run replaces
// it with the canonical one at commit time.
func (r *Repository) StartRun(accountID string, userID uint, syncID string) error {
	var record entities.SyncRecord
	result := r.db.Where("account_id = ?", accountID).First(&record)

	now := time.Now()
	if result.Error == gorm.ErrRecordNotFound {
		record = entities.SyncRecord{
			AccountID: accountID,
			UserID:    userID,
			SyncID:    syncID,
			Status:    entities.SyncStatusRunning,
			Stage:     string(syncpkg.StageInit),
			StartedAt: now,
			UpdatedAt: now,
		}
		return r.db.Create(&record).Error
	} else if result.Error != nil {
		return result.Error
	}

	// Reset existing row
	record.UserID = userID
	record.SyncID = syncID
	record.Status = entities.SyncStatusRunning
	record.Stage = string(syncpkg.StageInit)
	record.LocationsSynced = 0
	record.ReviewsSynced = 0
	record.QuestionsSynced = 0
	record.PostsSynced = 0
	record.MediaSynced = 0
	record.Message = ""
	record.Error = ""
	record.StartedAt = now
	record.UpdatedAt = now
	record.CompletedAt = nil

	return r.db.Save(&record).Error
}

// UpdateStage advances the status row to the given pipeline stage.
func (r *Repository) UpdateStage(accountID string, stage syncpkg.Stage) error {
	return r.db.Model(&entities.SyncRecord{}).
		Where("account_id = ?", accountID).
		Updates(map[string]any{
			"stage":      string(stage),
			"updated_at": time.Now(),
		}).Error
}

// FailRun marks the run as failed at the given stage, keeping the error
// message for the dashboard.
func (r *Repository) FailRun(accountID string, stage syncpkg.Stage, runErr error) error {
	now := time.Now()
	updates := map[string]any{
		"status":       entities.SyncStatusError,
		"stage":        string(stage),
		"updated_at":   now,
		"completed_at": now,
	}
	if runErr != nil {
		updates["error"] = runErr.Error()
	}
	return r.db.Model(&entities.SyncRecord{}).
		Where("account_id = ?", accountID).
		Updates(updates).Error
}

// IsRunActive reports whether a run is currently in progress for an account.
// A row not updated in 10 minutes is treated as interrupted and marked
// failed so a stuck run never blocks future ones.
func (r *Repository) IsRunActive(accountID string) (bool, error) {
	var record entities.SyncRecord
	err := r.db.Where("account_id = ? AND status = ?", accountID, entities.SyncStatusRunning).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	staleThreshold := time.Now().Add(-10 * time.Minute)
	if record.UpdatedAt.Before(staleThreshold) {
		_ = r.FailRun(accountID, syncpkg.Stage(record.Stage), errInterrupted)
		return false, nil
	}

	return true, nil
}

var errInterrupted = errors.New("sync was interrupted")
