package entities

import (
	"time"
)

// SyncMetric records the outcome of one sync run for reporting. One row is
// written per run, success or failure.
type SyncMetric struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index" json:"user_id"`
	AccountID  string    `gorm:"size:255;index" json:"account_id"`
	Success    bool      `json:"success"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (SyncMetric) TableName() string {
	return "sync_metrics"
}
