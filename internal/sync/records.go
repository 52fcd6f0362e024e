package sync

import (
	"github.com/vkarpenko/placesync/internal/entities"
)

// RecordSet is the full set of normalized records produced by one sync run,
// handed wholesale to the transactional writer. Posts and media stay empty
// when the corresponding option is off.
type RecordSet struct {
	Locations []entities.Location
	Reviews   []entities.Review
	Questions []entities.Question
	Posts     []entities.Post
	Media     []entities.Media
}

// TransactionResult reports what one atomic apply committed. SyncID is the
// canonical run identifier assigned by storage; the progress emitter adopts
// it for every event after the transaction stage.
type TransactionResult struct {
	SyncID string

	LocationsSynced int
	ReviewsSynced   int
	QuestionsSynced int
	PostsSynced     int
	MediaSynced     int
}

// Counts returns the per-resource counts keyed the way progress events
// expose them.
func (r *TransactionResult) Counts() map[string]int {
	return map[string]int{
		"locations": r.LocationsSynced,
		"reviews":   r.ReviewsSynced,
		"questions": r.QuestionsSynced,
		"posts":     r.PostsSynced,
		"media":     r.MediaSynced,
	}
}
