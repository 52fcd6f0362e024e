package sync

// Stage is one named phase of the sync pipeline.
type Stage string

const (
	StageInit           Stage = "init"
	StageLocationsFetch Stage = "locations_fetch"
	StageReviewsFetch   Stage = "reviews_fetch"
	StageQuestionsFetch Stage = "questions_fetch"
	StagePostsFetch     Stage = "posts_fetch"
	StageMediaFetch     Stage = "media_fetch"
	StageTransaction    Stage = "transaction"
	StageCacheRefresh   Stage = "cache_refresh"
	StageComplete       Stage = "complete"
)

// Status is the state of a stage as reported to observers.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Options selects the optional resource stages for one run. Locations and
// reviews are always synced.
type Options struct {
	IncludeQuestions bool
	IncludePosts     bool
	IncludeMedia     bool
}

// StageOrder returns the canonical stage list for the given options. The
// list is fixed at run start; progress percentages are computed against it
// and never change mid-run.
func StageOrder(opts Options) []Stage {
	order := []Stage{StageInit, StageLocationsFetch, StageReviewsFetch}
	if opts.IncludeQuestions {
		order = append(order, StageQuestionsFetch)
	}
	if opts.IncludePosts {
		order = append(order, StagePostsFetch)
	}
	if opts.IncludeMedia {
		order = append(order, StageMediaFetch)
	}
	return append(order, StageTransaction, StageCacheRefresh, StageComplete)
}
