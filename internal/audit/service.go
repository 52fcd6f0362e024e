package audit

import (
	"encoding/json"
	"log"
	"time"

	"github.com/vkarpenko/placesync/internal/database/audit"
	"github.com/vkarpenko/placesync/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo     *audit.Repository
	archiver *Archiver
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceWithArchive creates an audit service that additionally dumps
// failed sync run snapshots to the given directory.
func NewServiceWithArchive(repo *audit.Repository, archiveDir string) *Service {
	return &Service{repo: repo, archiver: NewArchiver(archiveDir)}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	go func() {
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// RecordSync records the outcome of one listing sync run. Exactly one event
// is written per run regardless of outcome.
func (s *Service) RecordSync(userID uint, accountID, description string, metadata map[string]any, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventSync,
		Action:      "listing_sync",
		Description: description,
		EntityType:  "account",
		EntityID:    accountID,
		Status:      entities.AuditStatusSuccess,
	}

	if len(metadata) > 0 {
		if mdBytes, e := json.Marshal(metadata); e == nil {
			event.Metadata = string(mdBytes)
		}
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)

		if s.archiver != nil {
			snapshot := map[string]any{
				"account_id":  accountID,
				"user_id":     userID,
				"description": description,
				"metadata":    metadata,
				"error":       err.Error(),
			}
			if _, archiveErr := s.archiver.SaveSnapshot(snapshot); archiveErr != nil {
				log.Printf("Failed to archive sync failure snapshot: %v", archiveErr)
			}
		}
	}

	s.LogAsync(event)
}

// LogAuth records a provider authorization event (connect, refresh failure).
func (s *Service) LogAuth(userID uint, accountID, action string, err error) {
	event := &entities.AuditEvent{
		UserID:     userID,
		EventType:  entities.AuditEventAuth,
		Action:     action,
		EntityType: "account",
		EntityID:   accountID,
		Status:     entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogSettings records a settings change event.
func (s *Service) LogSettings(userID uint, action, description string) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventSettings,
		Action:      action,
		Description: description,
		Status:      entities.AuditStatusSuccess,
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(userID, limit, offset)
}

// GetEventsByType retrieves audit events filtered by type.
func (s *Service) GetEventsByType(eventType entities.AuditEventType, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEventsByType(eventType, userID, limit, offset)
}

// GetAccountActivity retrieves recent audit events for one account.
func (s *Service) GetAccountActivity(userID uint, accountID string, limit int) ([]entities.AuditEvent, error) {
	return s.repo.GetEventsForEntity("account", accountID, userID, limit)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
