package entities

import (
	"time"
)

type SyncStatus string

const (
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusError     SyncStatus = "error"
)

// SyncRecord is the persisted status of the most recent sync run for one
// account. One row per account, reset at the start of every run. The
// dashboard reads it to render the "last synced" panel.
type SyncRecord struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	AccountID string     `gorm:"size:255;uniqueIndex" json:"account_id"`
	UserID    uint       `gorm:"index" json:"user_id"`
	SyncID    string     `gorm:"size:64" json:"sync_id"`
	Status    SyncStatus `gorm:"size:20" json:"status"`

	// Stage is the pipeline stage last reported; on error it names the
	// stage that failed.
	Stage string `gorm:"size:50" json:"stage"`

	LocationsSynced int `json:"locations_synced"`
	ReviewsSynced   int `json:"reviews_synced"`
	QuestionsSynced int `json:"questions_synced"`
	PostsSynced     int `json:"posts_synced"`
	MediaSynced     int `json:"media_synced"`

	Message string `gorm:"size:512" json:"message,omitempty"`
	Error   string `gorm:"type:text" json:"error,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (SyncRecord) TableName() string {
	return "sync_records"
}
