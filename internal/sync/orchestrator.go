// Package sync implements the staged pipeline that pulls locations,
// reviews, questions, posts and media from the business-listing provider,
// normalizes them and applies them to storage as one retryable transaction,
// reporting fine-grained progress along the way.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

// CacheBucketDashboard is the cache bucket invalidated after a committed sync.
const CacheBucketDashboard = "dashboard"

// Deps are the collaborators one orchestrator needs. Audit, Metrics, Cache
// and Runs may be nil; the orchestrator degrades to logging.
type Deps struct {
	Accounts  AccountResolver
	Tokens    TokenProvider
	Fetcher   ResourceFetcher
	Executor  *Executor
	Publisher ProgressPublisher
	Cache     CacheInvalidator
	Audit     AuditLogger
	Metrics   MetricsCollector
	Runs      RunRecorder
}

// Orchestrator sequences the resource fetchers and the transactional
// executor for one account at a time. Runs for different accounts are
// independent pipelines sharing no state; serializing concurrent runs for
// the same account is the caller's concern.
type Orchestrator struct {
	deps Deps
}

// NewOrchestrator creates an orchestrator over the given collaborators.
func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// Run executes one full sync for the account: token acquisition, the
// mandatory locations and reviews fetches, the optional fetches selected by
// opts, the atomic apply, and cache invalidation. Every exit path records
// exactly one audit entry and one metrics sample, and the last progress
// event of a failed run always carries status=error.
func (o *Orchestrator) Run(ctx context.Context, accountID string, userID uint, opts Options) (result *TransactionResult, err error) {
	start := time.Now()
	emitter := NewEmitter(o.deps.Publisher, accountID, userID, opts)
	failStage := StageInit

	defer func() {
		duration := time.Since(start)
		o.reportOutcome(userID, accountID, emitter.SyncID(), failStage, duration, result, err)
	}()

	emitter.Emit(StageInit, StatusRunning, Detail{Message: "starting sync"})

	account, lookupErr := o.deps.Accounts.GetAccountForUser(ctx, accountID, userID)
	if lookupErr != nil {
		if errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			err = fmt.Errorf("%w: account %s user %d", ErrAccountNotFound, accountID, userID)
		} else {
			err = fmt.Errorf("failed to resolve account %s: %w", accountID, lookupErr)
		}
		o.failRun(emitter, StageInit, err)
		return nil, err
	}

	token, tokenErr := o.deps.Tokens.GetValidAccessToken(ctx, account.ExternalID)
	if tokenErr != nil {
		err = &AuthError{Err: tokenErr}
		o.failRun(emitter, StageInit, err)
		return nil, err
	}

	if o.deps.Runs != nil {
		if recErr := o.deps.Runs.StartRun(accountID, userID, emitter.SyncID()); recErr != nil {
			log.Printf("Listing sync: failed to record run start for account %s: %v", accountID, recErr)
		}
	}
	emitter.Emit(StageInit, StatusCompleted, Detail{})

	var set RecordSet

	emitter.Emit(StageLocationsFetch, StatusRunning, Detail{})
	set.Locations, err = o.deps.Fetcher.Locations(ctx, token, accountID, userID)
	if err != nil {
		failStage = StageLocationsFetch
		o.failRun(emitter, StageLocationsFetch, err)
		return nil, err
	}
	o.completeStage(emitter, StageLocationsFetch, map[string]int{"locations": len(set.Locations)})

	emitter.Emit(StageReviewsFetch, StatusRunning, Detail{})
	set.Reviews, err = o.deps.Fetcher.Reviews(ctx, token, set.Locations, accountID, userID)
	if err != nil {
		failStage = StageReviewsFetch
		o.failRun(emitter, StageReviewsFetch, err)
		return nil, err
	}
	o.completeStage(emitter, StageReviewsFetch, map[string]int{"reviews": len(set.Reviews)})

	if opts.IncludeQuestions {
		emitter.Emit(StageQuestionsFetch, StatusRunning, Detail{})
		set.Questions, err = o.deps.Fetcher.Questions(ctx, token, set.Locations, accountID, userID)
		if err != nil {
			failStage = StageQuestionsFetch
			o.failRun(emitter, StageQuestionsFetch, err)
			return nil, err
		}
		o.completeStage(emitter, StageQuestionsFetch, map[string]int{"questions": len(set.Questions)})
	}

	if opts.IncludePosts {
		emitter.Emit(StagePostsFetch, StatusRunning, Detail{})
		set.Posts, err = o.deps.Fetcher.Posts(ctx, token, set.Locations, accountID, userID)
		if err != nil {
			failStage = StagePostsFetch
			o.failRun(emitter, StagePostsFetch, err)
			return nil, err
		}
		o.completeStage(emitter, StagePostsFetch, map[string]int{"posts": len(set.Posts)})
	}

	if opts.IncludeMedia {
		emitter.Emit(StageMediaFetch, StatusRunning, Detail{})
		set.Media, err = o.deps.Fetcher.Media(ctx, token, set.Locations, accountID, userID)
		if err != nil {
			failStage = StageMediaFetch
			o.failRun(emitter, StageMediaFetch, err)
			return nil, err
		}
		o.completeStage(emitter, StageMediaFetch, map[string]int{"media": len(set.Media)})
	}

	emitter.Emit(StageTransaction, StatusRunning, Detail{})
	result, err = o.deps.Executor.Apply(ctx, accountID, userID, set)
	if err != nil {
		failStage = StageTransaction
		o.failRun(emitter, StageTransaction, err)
		return nil, err
	}

	// Storage assigned the canonical id; every further event uses it.
	emitter.AdoptSyncID(result.SyncID)
	emitter.Emit(StageTransaction, StatusCompleted, Detail{Counts: result.Counts()})

	emitter.Emit(StageCacheRefresh, StatusRunning, Detail{})
	if o.deps.Cache != nil {
		if cacheErr := o.deps.Cache.Refresh(CacheBucketDashboard, userID); cacheErr != nil {
			// The transaction is already committed; a stale cache is
			// reported but does not fail the run.
			log.Printf("Listing sync: cache refresh failed for user %d: %v", userID, cacheErr)
			emitter.Emit(StageCacheRefresh, StatusError, Detail{Err: cacheErr})
		} else {
			emitter.Emit(StageCacheRefresh, StatusCompleted, Detail{})
		}
	} else {
		emitter.Emit(StageCacheRefresh, StatusCompleted, Detail{})
	}

	emitter.Emit(StageComplete, StatusCompleted, Detail{
		Message: "sync completed",
		Counts:  result.Counts(),
	})

	return result, nil
}

// completeStage emits the completed event and advances the persisted stage.
func (o *Orchestrator) completeStage(emitter *Emitter, stage Stage, counts map[string]int) {
	emitter.Emit(stage, StatusCompleted, Detail{Counts: counts})
	if o.deps.Runs != nil {
		if err := o.deps.Runs.UpdateStage(emitter.accountID, stage); err != nil {
			log.Printf("Listing sync: failed to record stage %s for account %s: %v", stage, emitter.accountID, err)
		}
	}
}

// failRun emits the error event for the failed stage, closes the progress
// bar with a final complete/error event, and persists the failure.
func (o *Orchestrator) failRun(emitter *Emitter, stage Stage, runErr error) {
	emitter.Emit(stage, StatusError, Detail{Err: runErr})
	emitter.Emit(StageComplete, StatusError, Detail{
		Message: fmt.Sprintf("sync failed at %s", stage),
		Err:     runErr,
	})

	if o.deps.Runs != nil {
		if recErr := o.deps.Runs.FailRun(emitter.accountID, stage, runErr); recErr != nil {
			log.Printf("Listing sync: failed to record run failure for account %s: %v", emitter.accountID, recErr)
		}
	}
}

// reportOutcome writes the audit entry and metrics sample, exactly once per
// run, success or failure.
func (o *Orchestrator) reportOutcome(userID uint, accountID, syncID string, failStage Stage, duration time.Duration, result *TransactionResult, runErr error) {
	success := runErr == nil

	metadata := map[string]any{
		"sync_id":     syncID,
		"duration_ms": duration.Milliseconds(),
	}
	description := fmt.Sprintf("Synced account %s in %v", accountID, duration.Round(time.Millisecond))
	if result != nil {
		for resource, count := range result.Counts() {
			metadata[resource+"_synced"] = count
		}
	}
	if !success {
		metadata["stage"] = string(failStage)
		description = fmt.Sprintf("Sync for account %s failed at %s", accountID, failStage)
	}

	if o.deps.Audit != nil {
		o.deps.Audit.RecordSync(userID, accountID, description, metadata, runErr)
	}
	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordSyncOutcome(userID, accountID, success, duration)
	}
}
