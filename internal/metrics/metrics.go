// Package metrics records sync run outcomes for reporting. One sample per
// run, success or failure, queryable for a simple success-rate dashboard.
package metrics

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/vkarpenko/placesync/internal/entities"
	syncpkg "github.com/vkarpenko/placesync/internal/sync"
)

// Collector persists sync outcome samples.
type Collector struct {
	db *gorm.DB
}

var _ syncpkg.MetricsCollector = (*Collector)(nil)

func NewCollector(db *gorm.DB) *Collector {
	return &Collector{db: db}
}

// RecordSyncOutcome writes one outcome sample. Failures are logged and
// swallowed; metrics never fail a sync run.
func (c *Collector) RecordSyncOutcome(userID uint, accountID string, success bool, duration time.Duration) {
	metric := entities.SyncMetric{
		UserID:     userID,
		AccountID:  accountID,
		Success:    success,
		DurationMs: duration.Milliseconds(),
		CreatedAt:  time.Now(),
	}
	if err := c.db.Create(&metric).Error; err != nil {
		log.Printf("Failed to record sync metric for account %s: %v", accountID, err)
	}
}

// Summary aggregates outcomes for one account over a window.
type Summary struct {
	Total         int64   `json:"total"`
	Succeeded     int64   `json:"succeeded"`
	Failed        int64   `json:"failed"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

// GetSummary aggregates run outcomes for an account since the given time.
func (c *Collector) GetSummary(userID uint, accountID string, since time.Time) (*Summary, error) {
	var summary Summary

	scope := func() *gorm.DB {
		return c.db.Model(&entities.SyncMetric{}).
			Where("user_id = ? AND account_id = ? AND created_at > ?", userID, accountID, since)
	}

	if err := scope().Count(&summary.Total).Error; err != nil {
		return nil, err
	}
	if err := scope().Where("success = ?", true).Count(&summary.Succeeded).Error; err != nil {
		return nil, err
	}
	summary.Failed = summary.Total - summary.Succeeded

	if summary.Total > 0 {
		row := scope().Select("AVG(duration_ms)").Row()
		if err := row.Scan(&summary.AvgDurationMs); err != nil {
			return nil, err
		}
	}

	return &summary, nil
}

// DeleteOldMetrics removes samples older than the given time. Returns the
// number of deleted rows.
func (c *Collector) DeleteOldMetrics(olderThan time.Time) (int64, error) {
	result := c.db.Where("created_at < ?", olderThan).Delete(&entities.SyncMetric{})
	return result.RowsAffected, result.Error
}
