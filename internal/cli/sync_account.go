package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vkarpenko/placesync/internal/audit"
	"github.com/vkarpenko/placesync/internal/config"
	"github.com/vkarpenko/placesync/internal/database"
	auditrepo "github.com/vkarpenko/placesync/internal/database/audit"
	"github.com/vkarpenko/placesync/internal/database/listings"
	"github.com/vkarpenko/placesync/internal/database/syncruns"
	"github.com/vkarpenko/placesync/internal/metrics"
	"github.com/vkarpenko/placesync/internal/oauth2"
	"github.com/vkarpenko/placesync/internal/progress"
	"github.com/vkarpenko/placesync/internal/provider"
	syncpkg "github.com/vkarpenko/placesync/internal/sync"
	"github.com/vkarpenko/placesync/internal/tokenstore"
)

// SyncAccountCommand runs one full listing sync for a single account from
// the command line, printing progress to stdout.
type SyncAccountCommand struct {
	AccountID        string
	UserID           uint
	DatabasePath     string
	IncludeQuestions bool
	IncludePosts     bool
	IncludeMedia     bool
	Timeout          time.Duration
}

// NewSyncAccountCommand creates a new SyncAccountCommand
func NewSyncAccountCommand() *SyncAccountCommand {
	return &SyncAccountCommand{}
}

// ParseFlags parses command line flags
func (cmd *SyncAccountCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)

	var userID uint64
	fs.StringVar(&cmd.AccountID, "account", "", "Provider account ID to sync (required)")
	fs.Uint64Var(&userID, "user", 0, "Owning user ID")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.BoolVar(&cmd.IncludeQuestions, "questions", false, "Also sync questions")
	fs.BoolVar(&cmd.IncludePosts, "posts", false, "Also sync posts")
	fs.BoolVar(&cmd.IncludeMedia, "media", false, "Also sync media")
	fs.DurationVar(&cmd.Timeout, "timeout", 15*time.Minute, "Overall sync timeout")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sync [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Run one listing sync for a connected account.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s sync -account accounts/105552\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s sync -account accounts/105552 -questions -media\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd.UserID = uint(userID)

	if cmd.AccountID == "" {
		fs.Usage()
		return fmt.Errorf("-account is required")
	}

	return nil
}

// Run executes the sync command
func (cmd *SyncAccountCommand) Run() error {
	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	cfg := config.NewConfig()

	tokenStore, err := tokenstore.New(db.DB, tokenstore.Config{})
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}

	oauthProvider := oauth2.NewProvider(oauth2.Config{
		ClientID:     cfg.OAuth2.ClientID,
		ClientSecret: cfg.OAuth2.ClientSecret,
	})

	providerClient := provider.NewClient(
		provider.WithBaseURL(cfg.Provider.BaseURL),
		provider.WithPageSize(cfg.Provider.PageSize),
		provider.WithTimeout(cfg.Provider.RequestTimeout),
	)

	broker := progress.NewBroker()
	events, cancelSub := broker.Subscribe(cmd.AccountID)
	defer cancelSub()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range events {
			if event.Error != "" {
				fmt.Printf("  [%3d%%] %s: %s (%s)\n", event.Percent, event.Stage, event.Status, event.Error)
				continue
			}
			fmt.Printf("  [%3d%%] %s: %s\n", event.Percent, event.Stage, event.Status)
		}
	}()

	orchestrator := syncpkg.NewOrchestrator(syncpkg.Deps{
		Accounts:  db,
		Tokens:    oauth2.NewTokenService(oauthProvider, tokenStore),
		Fetcher:   syncpkg.NewFetcher(providerClient),
		Executor:  syncpkg.NewExecutor(listings.NewRepository(db.DB), 3),
		Publisher: broker,
		Audit:     audit.NewService(auditrepo.NewRepository(db.DB)),
		Metrics:   metrics.NewCollector(db.DB),
		Runs:      syncruns.NewRepository(db.DB),
	})

	fmt.Printf("Syncing account %s\n", cmd.AccountID)

	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()

	result, err := orchestrator.Run(ctx, cmd.AccountID, cmd.UserID, syncpkg.Options{
		IncludeQuestions: cmd.IncludeQuestions,
		IncludePosts:     cmd.IncludePosts,
		IncludeMedia:     cmd.IncludeMedia,
	})
	cancelSub()
	<-done
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Printf("Done: %d locations, %d reviews, %d questions, %d posts, %d media (sync %s)\n",
		result.LocationsSynced, result.ReviewsSynced, result.QuestionsSynced,
		result.PostsSynced, result.MediaSynced, result.SyncID)
	return nil
}
