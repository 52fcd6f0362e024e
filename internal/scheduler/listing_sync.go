package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vkarpenko/placesync/internal/database"
	"github.com/vkarpenko/placesync/internal/database/syncruns"
	"github.com/vkarpenko/placesync/internal/settingsstore"
	syncpkg "github.com/vkarpenko/placesync/internal/sync"
)

// ListingSyncScheduler manages periodic syncs of every connected account
type ListingSyncScheduler struct {
	db            *database.Database
	settingsStore *settingsstore.SettingsStore
	orchestrator  *syncpkg.Orchestrator
	runs          *syncruns.Repository

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	cancelFunc context.CancelFunc
}

// NewListingSyncScheduler creates a new scheduler instance
func NewListingSyncScheduler(db *database.Database, settingsStore *settingsstore.SettingsStore, orchestrator *syncpkg.Orchestrator, runs *syncruns.Repository) *ListingSyncScheduler {
	return &ListingSyncScheduler{
		db:            db,
		settingsStore: settingsStore,
		orchestrator:  orchestrator,
		runs:          runs,
		cron:          cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if sync is enabled
func (s *ListingSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	config := s.settingsStore.GetListingSyncConfig()

	if !config.Enabled {
		log.Printf("Listing sync scheduler: disabled")
		return nil
	}

	// Validate schedule
	if err := settingsstore.ValidateCronSchedule(config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", config.Schedule, err)
	}

	// Add the sync job
	entryID, err := s.cron.AddFunc(config.Schedule, func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	s.entryID = entryID

	// Create cancellable context
	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	// Start cron scheduler
	s.cron.Start()
	s.isRunning = true

	// Calculate next run
	nextRun, _ := settingsstore.GetNextRunTime(config.Schedule)
	log.Printf("Listing sync scheduler: started with schedule '%s' (%s). Next run: %v",
		config.Schedule,
		settingsstore.GetCronDescription(config.Schedule),
		nextRun)

	// Monitor for context cancellation
	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *ListingSyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Listing sync scheduler: stopped")
}

// Reschedule updates the schedule (call after settings change)
func (s *ListingSyncScheduler) Reschedule() error {
	s.mu.Lock()
	wasRunning := s.isRunning
	s.mu.Unlock()

	if wasRunning {
		s.Stop()
	}

	// Restart with new settings
	return s.Start(context.Background())
}

// RunNow triggers an immediate sync of every account
func (s *ListingSyncScheduler) RunNow() error {
	go s.runSync()
	return nil
}

// IsRunning returns whether the scheduler is active
func (s *ListingSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a scheduled sweep is currently in progress
func (s *ListingSyncScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// GetNextRunTime returns when the next sweep will occur
func (s *ListingSyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entries := s.cron.Entries()
	for _, entry := range entries {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runSync sweeps every connected account and syncs the idle ones
func (s *ListingSyncScheduler) runSync() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("Listing sync: skipped (sweep already in progress)")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	config := s.settingsStore.GetListingSyncConfig()

	if !config.Enabled {
		log.Printf("Listing sync: skipped (disabled)")
		return
	}

	accounts, err := s.db.GetAllAccounts()
	if err != nil {
		log.Printf("Listing sync: failed to list accounts: %v", err)
		return
	}

	if len(accounts) == 0 {
		log.Printf("Listing sync: no connected accounts")
		return
	}

	log.Printf("Listing sync: starting sweep over %d account(s)", len(accounts))
	startTime := time.Now()
	opts := s.settingsStore.SyncOptions()

	var synced, skipped, failed int
	for _, account := range accounts {
		if active, err := s.runs.IsRunActive(account.ExternalID); err != nil {
			log.Printf("Listing sync: account %s: failed to check running state: %v", account.ExternalID, err)
			failed++
			continue
		} else if active {
			log.Printf("Listing sync: account %s: skipped (sync already running)", account.ExternalID)
			skipped++
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		_, err := s.orchestrator.Run(ctx, account.ExternalID, account.UserID, opts)
		cancel()
		if err != nil {
			log.Printf("Listing sync: account %s: %v", account.ExternalID, err)
			failed++
			continue
		}
		synced++
	}

	log.Printf("Listing sync: sweep finished in %v (%d synced, %d skipped, %d failed)",
		time.Since(startTime).Round(time.Millisecond), synced, skipped, failed)
}
