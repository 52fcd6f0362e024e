package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vkarpenko/placesync/internal/audit"
	"github.com/vkarpenko/placesync/internal/cache"
	"github.com/vkarpenko/placesync/internal/config"
	"github.com/vkarpenko/placesync/internal/database"
	auditrepo "github.com/vkarpenko/placesync/internal/database/audit"
	"github.com/vkarpenko/placesync/internal/database/listings"
	"github.com/vkarpenko/placesync/internal/database/syncruns"
	http_controllers "github.com/vkarpenko/placesync/internal/http"
	"github.com/vkarpenko/placesync/internal/metrics"
	"github.com/vkarpenko/placesync/internal/oauth2"
	"github.com/vkarpenko/placesync/internal/progress"
	"github.com/vkarpenko/placesync/internal/provider"
	"github.com/vkarpenko/placesync/internal/scheduler"
	"github.com/vkarpenko/placesync/internal/settingsstore"
	syncpkg "github.com/vkarpenko/placesync/internal/sync"
	"github.com/vkarpenko/placesync/internal/tasks"
	"github.com/vkarpenko/placesync/internal/tokenstore"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue and schedulers)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting placesync v%s", version)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Audit service with failure snapshot archiving
	auditService := audit.NewServiceWithArchive(auditrepo.NewRepository(db.DB), cfg.Audit.Dir)

	// Sync outcome metrics
	metricsCollector := metrics.NewCollector(db.DB)

	// Encrypted token store over the main database
	tokenStore, err := tokenstore.New(db.DB, tokenstore.Config{})
	if err != nil {
		log.Fatalf("Failed to initialize token store: %v", err)
	}

	// OAuth provider + token service
	oauthProvider := oauth2.NewProvider(oauth2.Config{
		ClientID:     cfg.OAuth2.ClientID,
		ClientSecret: cfg.OAuth2.ClientSecret,
	})
	tokenService := oauth2.NewTokenService(oauthProvider, tokenStore)

	var oauthFlow *oauth2.FlowHandler
	if cfg.OAuth2.ClientID != "" {
		oauthFlow = oauth2.NewFlowHandler(oauthProvider, tokenStore)
	} else {
		log.Printf("WARNING: OAUTH2_CLIENT_ID is not set. Account connect endpoints will be disabled.")
	}

	// Background token refresh
	var refreshScheduler *oauth2.RefreshScheduler
	if cfg.OAuth2.RefreshEnabled && oauthFlow != nil {
		refreshScheduler = oauth2.NewRefreshScheduler(tokenStore, oauthProvider, oauth2.RefreshConfig{
			Enabled:       true,
			CheckInterval: cfg.OAuth2.CheckInterval,
			RefreshMargin: cfg.OAuth2.RefreshMargin,
		}, auditService)
		refreshScheduler.Start(context.Background())
	}

	// Provider client and sync pipeline
	providerClient := provider.NewClient(
		provider.WithBaseURL(cfg.Provider.BaseURL),
		provider.WithPageSize(cfg.Provider.PageSize),
		provider.WithTimeout(cfg.Provider.RequestTimeout),
	)

	broker := progress.NewBroker()
	dashboardCache := cache.New(cfg.Cache.TTL)
	runs := syncruns.NewRepository(db.DB)

	orchestrator := syncpkg.NewOrchestrator(syncpkg.Deps{
		Accounts:  db,
		Tokens:    tokenService,
		Fetcher:   syncpkg.NewFetcher(providerClient),
		Executor:  syncpkg.NewExecutor(listings.NewRepository(db.DB), 3),
		Publisher: broker,
		Cache:     dashboardCache,
		Audit:     auditService,
		Metrics:   metricsCollector,
		Runs:      runs,
	})

	settingsStore := settingsstore.New(db)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		// Register task queues
		taskClient.Register(
			tasks.NewSyncAccountQueue(orchestrator, runs),
			tasks.NewCleanupAuditEventsQueue(auditService),
			tasks.NewCleanupSyncMetricsQueue(metricsCollector),
		)

		// Start task workers in background
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Periodic sync scheduler
	syncScheduler := scheduler.NewListingSyncScheduler(db, settingsStore, orchestrator, runs)
	if err := syncScheduler.Start(context.Background()); err != nil {
		log.Printf("WARNING: Failed to start sync scheduler: %v", err)
	}

	// Build router configuration with all dependencies
	routerCfg := http_controllers.RouterConfig{
		Database:         db,
		Runs:             runs,
		Orchestrator:     orchestrator,
		Broker:           broker,
		TaskClient:       taskClient,
		Scheduler:        syncScheduler,
		SettingsStore:    settingsStore,
		OAuthFlow:        oauthFlow,
		OAuthRedirectURL: cfg.OAuth2.RedirectURL,
		Tokens:           tokenStore,
		AuditService:     auditService,
		Metrics:          metricsCollector,
		Cache:            dashboardCache,
		Version:          version,
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		syncScheduler.Stop()
		if refreshScheduler != nil {
			refreshScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
