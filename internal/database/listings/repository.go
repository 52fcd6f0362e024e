// Package listings persists the record sets produced by a sync run.
//
// ApplyAtomic is the single write path: all upserts for one run happen in
// one transaction, so a failed run leaves no partial state behind.
package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vkarpenko/placesync/internal/entities"
	syncpkg "github.com/vkarpenko/placesync/internal/sync"
)

// Repository implements sync.TransactionalWriter over gorm.
type Repository struct {
	db *gorm.DB
}

var _ syncpkg.TransactionalWriter = (*Repository)(nil)

// NewRepository creates a new listings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// upsertColumns are the columns refreshed when a record already exists.
// CreatedAt and the surrogate key are left alone so re-syncs stay idempotent.
func upsertConflict(updateCols []string) clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}, {Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns(updateCols),
	}
}

// ApplyAtomic writes a full record set in one transaction and finalizes the
// per-account sync status row with a fresh canonical sync id. Contention
// errors from sqlite are marked retryable so the executor can re-run the
// whole transaction.
func (r *Repository) ApplyAtomic(ctx context.Context, accountID string, userID uint, set syncpkg.RecordSet) (*syncpkg.TransactionResult, error) {
	result := &syncpkg.TransactionResult{
		SyncID:          uuid.NewString(),
		LocationsSynced: len(set.Locations),
		ReviewsSynced:   len(set.Reviews),
		QuestionsSynced: len(set.Questions),
		PostsSynced:     len(set.Posts),
		MediaSynced:     len(set.Media),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(set.Locations) > 0 {
			conflict := upsertConflict([]string{
				"safe_key", "title", "store_code", "address", "phone",
				"website_url", "average_rating", "review_count",
				"follower_count", "is_active", "updated_at",
			})
			if err := tx.Clauses(conflict).Create(&set.Locations).Error; err != nil {
				return err
			}
		}

		if len(set.Reviews) > 0 {
			conflict := upsertConflict([]string{
				"reviewer_name", "reviewer_photo", "star_rating", "comment",
				"status", "reply_text", "replied_at", "edited_at", "updated_at",
			})
			if err := tx.Clauses(conflict).Create(&set.Reviews).Error; err != nil {
				return err
			}
		}

		if len(set.Questions) > 0 {
			conflict := upsertConflict([]string{
				"text", "author_name", "status", "top_answer_text",
				"answer_count", "updated_at",
			})
			if err := tx.Clauses(conflict).Create(&set.Questions).Error; err != nil {
				return err
			}
		}

		if len(set.Posts) > 0 {
			conflict := upsertConflict([]string{
				"summary", "topic_type", "state", "call_to_action_url",
				"media_url", "updated_at",
			})
			if err := tx.Clauses(conflict).Create(&set.Posts).Error; err != nil {
				return err
			}
		}

		if len(set.Media) > 0 {
			conflict := upsertConflict([]string{
				"format", "category", "source_url", "thumbnail_url", "updated_at",
			})
			if err := tx.Clauses(conflict).Create(&set.Media).Error; err != nil {
				return err
			}
		}

		return r.finalizeRun(tx, accountID, userID, result)
	})
	if err != nil {
		if isContention(err) {
			return nil, &syncpkg.RetryableError{Err: err}
		}
		return nil, err
	}

	return result, nil
}

// finalizeRun marks the account's sync status row completed inside the same
// transaction as the data writes, stamping the canonical sync id.
func (r *Repository) finalizeRun(tx *gorm.DB, accountID string, userID uint, result *syncpkg.TransactionResult) error {
	now := time.Now()

	var record entities.SyncRecord
	err := tx.Where("account_id = ?", accountID).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		record = entities.SyncRecord{
			AccountID: accountID,
			UserID:    userID,
			StartedAt: now,
		}
	} else if err != nil {
		return err
	}

	record.SyncID = result.SyncID
	record.Status = entities.SyncStatusCompleted
	record.Stage = "transaction"
	record.LocationsSynced = result.LocationsSynced
	record.ReviewsSynced = result.ReviewsSynced
	record.QuestionsSynced = result.QuestionsSynced
	record.PostsSynced = result.PostsSynced
	record.MediaSynced = result.MediaSynced
	record.Error = ""
	record.UpdatedAt = now
	record.CompletedAt = &now

	if err := tx.Save(&record).Error; err != nil {
		return err
	}

	return tx.Model(&entities.Account{}).
		Where("external_id = ? AND user_id = ?", accountID, userID).
		Update("last_synced_at", now).Error
}

// isContention reports whether err is a transient sqlite lock the caller
// should retry.
func isContention(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}
