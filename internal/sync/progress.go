package sync

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// ProgressEvent is one typed progress update for a sync run. Events are
// published fire-and-forget and never stored by the engine itself.
type ProgressEvent struct {
	SyncID    string         `json:"sync_id"`
	AccountID string         `json:"account_id"`
	UserID    uint           `json:"user_id"`
	Stage     Stage          `json:"stage"`
	Status    Status         `json:"status"`
	Current   int            `json:"current"`
	Total     int            `json:"total"`
	Percent   int            `json:"percentage"`
	Message   string         `json:"message,omitempty"`
	Counts    map[string]int `json:"counts,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Detail carries the optional parts of a progress emission.
type Detail struct {
	Message string
	Counts  map[string]int
	Err     error
}

// Emitter tracks stage progression for one run and publishes typed events.
// It is owned by a single orchestrator call; runs for different accounts
// each get their own emitter, so nothing here is synchronized.
type Emitter struct {
	publisher ProgressPublisher
	accountID string
	userID    uint
	order     []Stage

	// syncID starts as a provisional uuid and is replaced by the canonical
	// id once storage assigns one. A run's stream must never fork between
	// the two ids, so adoption happens before the transaction-completed
	// event is emitted.
	syncID string
}

// NewEmitter creates an emitter with a provisional sync id and a stage order
// fixed from the run options.
func NewEmitter(publisher ProgressPublisher, accountID string, userID uint, opts Options) *Emitter {
	return &Emitter{
		publisher: publisher,
		accountID: accountID,
		userID:    userID,
		order:     StageOrder(opts),
		syncID:    uuid.NewString(),
	}
}

// SyncID returns the id current events are published under.
func (e *Emitter) SyncID() string {
	return e.syncID
}

// StageOrder returns the canonical stage list for this run.
func (e *Emitter) StageOrder() []Stage {
	return e.order
}

// AdoptSyncID switches all further events to the canonical id assigned by
// storage. Ignores empty ids.
func (e *Emitter) AdoptSyncID(id string) {
	if id != "" {
		e.syncID = id
	}
}

// Emit publishes one progress event for the given stage and status.
func (e *Emitter) Emit(stage Stage, status Status, detail Detail) {
	if e.publisher == nil {
		return
	}

	total := len(e.order)
	idx := e.stageIndex(stage)

	current := idx
	switch {
	case status == StatusCompleted:
		current = idx + 1
	case stage == StageComplete && status == StatusError:
		// An aborted run still drives its bar to 100%.
		current = total
	}

	event := ProgressEvent{
		SyncID:    e.syncID,
		AccountID: e.accountID,
		UserID:    e.userID,
		Stage:     stage,
		Status:    status,
		Current:   current,
		Total:     total,
		Percent:   percentage(current, total),
		Message:   detail.Message,
		Counts:    detail.Counts,
		Timestamp: time.Now().UTC(),
	}
	if detail.Err != nil {
		event.Error = detail.Err.Error()
	}

	e.publisher.Publish(event)
}

func (e *Emitter) stageIndex(stage Stage) int {
	for i, s := range e.order {
		if s == stage {
			return i
		}
	}
	return 0
}

func percentage(current, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(current) / float64(total)))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
