package http

import (
	"github.com/vkarpenko/placesync/internal/audit"
	"github.com/vkarpenko/placesync/internal/cache"
	"github.com/vkarpenko/placesync/internal/database"
	"github.com/vkarpenko/placesync/internal/database/syncruns"
	"github.com/vkarpenko/placesync/internal/metrics"
	"github.com/vkarpenko/placesync/internal/oauth2"
	"github.com/vkarpenko/placesync/internal/progress"
	"github.com/vkarpenko/placesync/internal/scheduler"
	"github.com/vkarpenko/placesync/internal/settingsstore"
	syncpkg "github.com/vkarpenko/placesync/internal/sync"
	"github.com/vkarpenko/placesync/internal/tasks"
	"github.com/vkarpenko/placesync/internal/tokenstore"
)

// RouterConfig contains all dependencies and configuration needed to
// create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database     *database.Database
	Runs         *syncruns.Repository
	Orchestrator *syncpkg.Orchestrator

	// Progress streaming
	Broker *progress.Broker

	// Background sync queue (optional; falls back to in-process runs)
	TaskClient *tasks.Client

	// Scheduled sync (optional)
	Scheduler     *scheduler.ListingSyncScheduler
	SettingsStore *settingsstore.SettingsStore

	// OAuth account connection flow (optional)
	OAuthFlow        *oauth2.FlowHandler
	OAuthRedirectURL string
	Tokens           *tokenstore.TokenStore

	// Observability
	AuditService *audit.Service
	Metrics      *metrics.Collector

	// Dashboard cache (optional)
	Cache *cache.Cache

	// Application info
	Version string
}
