package sync

import (
	"context"
	"time"

	"github.com/vkarpenko/placesync/internal/entities"
)

// AccountResolver validates that an account is connected and owned by the
// calling user before any provider traffic happens.
type AccountResolver interface {
	GetAccountForUser(ctx context.Context, accountID string, userID uint) (*entities.Account, error)
}

// TokenProvider supplies a valid provider access token for an account,
// refreshing stored credentials when needed.
type TokenProvider interface {
	GetValidAccessToken(ctx context.Context, accountID string) (string, error)
}

// TransactionalWriter applies a full record set atomically: every upsert
// lands or none does. Implementations wrap transient contention errors so
// the executor can retry them (see RetryableError).
type TransactionalWriter interface {
	ApplyAtomic(ctx context.Context, accountID string, userID uint, set RecordSet) (*TransactionResult, error)
}

// ProgressPublisher receives progress events fire-and-forget; no
// acknowledgment is awaited and failures never fail the run.
type ProgressPublisher interface {
	Publish(event ProgressEvent)
}

// CacheInvalidator refreshes a dashboard cache bucket after a committed
// sync. Best-effort; errors are reported but do not fail the run.
type CacheInvalidator interface {
	Refresh(bucket string, userID uint) error
}

// AuditLogger records one audit entry per run outcome.
type AuditLogger interface {
	RecordSync(userID uint, accountID, description string, metadata map[string]any, err error)
}

// MetricsCollector records one outcome sample per run.
type MetricsCollector interface {
	RecordSyncOutcome(userID uint, accountID string, success bool, duration time.Duration)
}

// RunRecorder persists the per-account sync status row the dashboard reads.
type RunRecorder interface {
	StartRun(accountID string, userID uint, syncID string) error
	UpdateStage(accountID string, stage Stage) error
	FailRun(accountID string, stage Stage, runErr error) error
}

// ResourceFetcher produces normalized records for each resource type.
// Locations is the root fetch; the rest are scoped to the fetched locations.
type ResourceFetcher interface {
	Locations(ctx context.Context, token, accountID string, userID uint) ([]entities.Location, error)
	Reviews(ctx context.Context, token string, locations []entities.Location, accountID string, userID uint) ([]entities.Review, error)
	Questions(ctx context.Context, token string, locations []entities.Location, accountID string, userID uint) ([]entities.Question, error)
	Posts(ctx context.Context, token string, locations []entities.Location, accountID string, userID uint) ([]entities.Post, error)
	Media(ctx context.Context, token string, locations []entities.Location, accountID string, userID uint) ([]entities.Media, error)
}
