package audit

import (
	"time"

	"gorm.io/gorm"

	"github.com/vkarpenko/placesync/internal/entities"
)

const defaultPageSize = 50

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent saves an audit event to the database.
func (r *Repository) LogEvent(event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.Create(event).Error
}

// GetEvents retrieves paginated audit events for a user, most recent first.
// userID 0 means all users.
func (r *Repository) GetEvents(userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return r.pagedEvents(r.db.Model(&entities.AuditEvent{}), userID, limit, offset)
}

// GetEventsByType retrieves audit events of one type, most recent first.
func (r *Repository) GetEventsByType(eventType entities.AuditEventType, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	query := r.db.Model(&entities.AuditEvent{}).Where("event_type = ?", eventType)
	return r.pagedEvents(query, userID, limit, offset)
}

func (r *Repository) pagedEvents(query *gorm.DB, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	var events []entities.AuditEvent
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}

// GetEventsForEntity retrieves audit events touching one entity, most
// recent first. Used by the account activity panel.
func (r *Repository) GetEventsForEntity(entityType, entityID string, userID uint, limit int) ([]entities.AuditEvent, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	var events []entities.AuditEvent
	err := r.db.Where("entity_type = ? AND entity_id = ? AND user_id = ?", entityType, entityID, userID).
		Order("created_at DESC").Limit(limit).Find(&events).Error
	return events, err
}

// DeleteOldEvents removes audit events created before the cutoff and
// returns how many were deleted.
func (r *Repository) DeleteOldEvents(olderThan time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", olderThan).Delete(&entities.AuditEvent{})
	return result.RowsAffected, result.Error
}
