package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vkarpenko/placesync/internal/entities"
)

type fakeAccounts struct {
	err error
}

func (f *fakeAccounts) GetAccountForUser(ctx context.Context, accountID string, userID uint) (*entities.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entities.Account{ExternalID: accountID, UserID: userID}, nil
}

type fakeTokens struct {
	token string
	err   error
}

func (f *fakeTokens) GetValidAccessToken(ctx context.Context, accountID string) (string, error) {
	return f.token, f.err
}

// fakeFetcher serves canned records and can fail the locations stage.
type fakeFetcher struct {
	locations    []entities.Location
	reviewsPer   int
	questionsPer int
	locationsErr error
}

func (f *fakeFetcher) Locations(ctx context.Context, token, accountID string, userID uint) ([]entities.Location, error) {
	if f.locationsErr != nil {
		return nil, f.locationsErr
	}
	return f.locations, nil
}

func (f *fakeFetcher) Reviews(ctx context.Context, token string, locations []entities.Location, accountID string, userID uint) ([]entities.Review, error) {
	var reviews []entities.Review
	for _, loc := range locations {
		for i := 0; i < f.reviewsPer; i++ {
			reviews = append(reviews, entities.Review{LocationExternalID: loc.ExternalID})
		}
	}
	return reviews, nil
}

func (f *fakeFetcher) Questions(ctx context.Context, token string, locations []entities.Location, accountID string, userID uint) ([]entities.Question, error) {
	var questions []entities.Question
	for range locations {
		for i := 0; i < f.questionsPer; i++ {
			questions = append(questions, entities.Question{})
		}
	}
	return questions, nil
}

func (f *fakeFetcher) Posts(ctx context.Context, token string, locations []entities.Location, accountID string, userID uint) ([]entities.Post, error) {
	return nil, nil
}

func (f *fakeFetcher) Media(ctx context.Context, token string, locations []entities.Location, accountID string, userID uint) ([]entities.Media, error) {
	return nil, nil
}

type fakeCache struct {
	refreshed []string
	err       error
}

func (f *fakeCache) Refresh(bucket string, userID uint) error {
	f.refreshed = append(f.refreshed, bucket)
	return f.err
}

type auditEntry struct {
	userID      uint
	accountID   string
	description string
	metadata    map[string]any
	err         error
}

type fakeAudit struct {
	entries []auditEntry
}

func (f *fakeAudit) RecordSync(userID uint, accountID, description string, metadata map[string]any, err error) {
	f.entries = append(f.entries, auditEntry{userID, accountID, description, metadata, err})
}

type metricSample struct {
	success  bool
	duration time.Duration
}

type fakeMetrics struct {
	samples []metricSample
}

func (f *fakeMetrics) RecordSyncOutcome(userID uint, accountID string, success bool, duration time.Duration) {
	f.samples = append(f.samples, metricSample{success, duration})
}

type testDeps struct {
	accounts *fakeAccounts
	tokens   *fakeTokens
	fetcher  *fakeFetcher
	writer   *flakyWriter
	pub      *capturePublisher
	cache    *fakeCache
	audit    *fakeAudit
	metrics  *fakeMetrics
}

func newTestDeps() *testDeps {
	return &testDeps{
		accounts: &fakeAccounts{},
		tokens:   &fakeTokens{token: "tok"},
		fetcher: &fakeFetcher{
			locations: locationsFixture("accounts/42/locations/1", "accounts/42/locations/2"),
		},
		writer:  &flakyWriter{},
		pub:     &capturePublisher{},
		cache:   &fakeCache{},
		audit:   &fakeAudit{},
		metrics: &fakeMetrics{},
	}
}

func (d *testDeps) orchestrator() *Orchestrator {
	executor := NewExecutor(d.writer, 3)
	executor.backoff = time.Millisecond
	return NewOrchestrator(Deps{
		Accounts:  d.accounts,
		Tokens:    d.tokens,
		Fetcher:   d.fetcher,
		Executor:  executor,
		Publisher: d.pub,
		Cache:     d.cache,
		Audit:     d.audit,
		Metrics:   d.metrics,
	})
}

func stagesSeen(events []ProgressEvent) []Stage {
	stages := make([]Stage, 0, len(events))
	for _, e := range events {
		stages = append(stages, e.Stage)
	}
	return stages
}

func TestOrchestrator_SuccessfulRun(t *testing.T) {
	// Two locations with three reviews each, questions disabled.
	deps := newTestDeps()
	deps.fetcher.reviewsPer = 3

	result, err := deps.orchestrator().Run(context.Background(), "42", 7, Options{})
	require.NoError(t, err)
	assert.Equal(t, 6, result.ReviewsSynced)
	assert.Equal(t, 2, result.LocationsSynced)

	events := deps.pub.events
	require.NotEmpty(t, events)

	final := events[len(events)-1]
	assert.Equal(t, StageComplete, final.Stage)
	assert.Equal(t, StatusCompleted, final.Status)
	assert.Equal(t, 100, final.Percent)
	assert.Equal(t, 6, final.Counts["reviews"])

	// Optional stages never appear when their flag is off.
	for _, stage := range stagesSeen(events) {
		assert.NotEqual(t, StageQuestionsFetch, stage)
		assert.NotEqual(t, StagePostsFetch, stage)
		assert.NotEqual(t, StageMediaFetch, stage)
	}

	assert.Equal(t, []string{CacheBucketDashboard}, deps.cache.refreshed)

	require.Len(t, deps.audit.entries, 1)
	require.Len(t, deps.metrics.samples, 1)
	assert.True(t, deps.metrics.samples[0].success)
}

func TestOrchestrator_LocationsFetchFailureAborts(t *testing.T) {
	deps := newTestDeps()
	deps.fetcher.locationsErr = errors.New("provider server error: HTTP 500")

	_, err := deps.orchestrator().Run(context.Background(), "42", 7, Options{})
	require.Error(t, err)

	events := deps.pub.events
	require.NotEmpty(t, events)

	// The run never reaches the transaction stage.
	for _, stage := range stagesSeen(events) {
		assert.NotEqual(t, StageTransaction, stage)
	}

	// The last event always reports the error, with the bar forced closed.
	final := events[len(events)-1]
	assert.Equal(t, StageComplete, final.Stage)
	assert.Equal(t, StatusError, final.Status)
	assert.Equal(t, 100, final.Percent)
	assert.NotEmpty(t, final.Error)

	require.Len(t, deps.audit.entries, 1)
	assert.Equal(t, string(StageLocationsFetch), deps.audit.entries[0].metadata["stage"])
	require.Len(t, deps.metrics.samples, 1)
	assert.False(t, deps.metrics.samples[0].success)

	assert.Empty(t, deps.cache.refreshed)
	assert.Zero(t, deps.writer.calls)
}

func TestOrchestrator_TokenFailureAbortsAtInit(t *testing.T) {
	deps := newTestDeps()
	deps.tokens.err = errors.New("no refresh token available")

	_, err := deps.orchestrator().Run(context.Background(), "42", 7, Options{})
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.EqualError(t, authErr.Err, "no refresh token available")

	// Nothing was fetched or written.
	assert.Zero(t, deps.writer.calls)

	errorEvents := 0
	for _, e := range deps.pub.events {
		if e.Status == StatusError {
			errorEvents++
			assert.NotEmpty(t, e.Error)
		}
	}
	assert.Equal(t, 2, errorEvents) // init error + forced complete
}

func TestOrchestrator_UnknownAccountFailsClosed(t *testing.T) {
	deps := newTestDeps()
	deps.accounts.err = gorm.ErrRecordNotFound

	_, err := deps.orchestrator().Run(context.Background(), "42", 7, Options{})
	require.ErrorIs(t, err, ErrAccountNotFound)
	assert.Zero(t, deps.writer.calls)
}

func TestOrchestrator_AccountLookupFailureIsNotNotFound(t *testing.T) {
	deps := newTestDeps()
	deps.accounts.err = errors.New("database is locked")

	_, err := deps.orchestrator().Run(context.Background(), "42", 7, Options{})
	require.Error(t, err)
	// A storage outage must not masquerade as a missing account.
	assert.NotErrorIs(t, err, ErrAccountNotFound)
	assert.ErrorContains(t, err, "database is locked")
	assert.Zero(t, deps.writer.calls)
}

func TestOrchestrator_TransactionRetriesWithoutDuplicateEvents(t *testing.T) {
	deps := newTestDeps()
	deps.writer.failures = 2

	result, err := deps.orchestrator().Run(context.Background(), "42", 7, Options{})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 3, deps.writer.calls)

	// Exactly one transaction/completed event despite the retries.
	completed := 0
	for _, e := range deps.pub.events {
		if e.Stage == StageTransaction && e.Status == StatusCompleted {
			completed++
			assert.Equal(t, "canonical-1", e.SyncID)
		}
	}
	assert.Equal(t, 1, completed)
}

func TestOrchestrator_AdoptsCanonicalSyncID(t *testing.T) {
	deps := newTestDeps()

	_, err := deps.orchestrator().Run(context.Background(), "42", 7, Options{})
	require.NoError(t, err)

	events := deps.pub.events
	final := events[len(events)-1]
	assert.Equal(t, "canonical-1", final.SyncID)

	// Events before the transaction completed under the provisional id.
	assert.NotEqual(t, "canonical-1", events[0].SyncID)
	assert.NotEmpty(t, events[0].SyncID)
}

func TestOrchestrator_CacheFailureDoesNotFailRun(t *testing.T) {
	deps := newTestDeps()
	deps.cache.err = errors.New("cache backend unavailable")

	result, err := deps.orchestrator().Run(context.Background(), "42", 7, Options{})
	require.NoError(t, err)
	require.NotNil(t, result)

	var sawCacheError bool
	for _, e := range deps.pub.events {
		if e.Stage == StageCacheRefresh && e.Status == StatusError {
			sawCacheError = true
		}
	}
	assert.True(t, sawCacheError)

	final := deps.pub.events[len(deps.pub.events)-1]
	assert.Equal(t, StageComplete, final.Stage)
	assert.Equal(t, StatusCompleted, final.Status)

	require.Len(t, deps.metrics.samples, 1)
	assert.True(t, deps.metrics.samples[0].success)
}

func TestOrchestrator_OptionalStagesRun(t *testing.T) {
	deps := newTestDeps()
	deps.fetcher.questionsPer = 2

	opts := Options{IncludeQuestions: true}
	_, err := deps.orchestrator().Run(context.Background(), "42", 7, opts)
	require.NoError(t, err)

	var sawQuestions bool
	for _, e := range deps.pub.events {
		if e.Stage == StageQuestionsFetch && e.Status == StatusCompleted {
			sawQuestions = true
			assert.Equal(t, 4, e.Counts["questions"])
		}
	}
	assert.True(t, sawQuestions)
}
