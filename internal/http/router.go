package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	syncController := NewSyncController(cfg.Database, cfg.Runs, cfg.Orchestrator, cfg.Broker, cfg.TaskClient, cfg.SettingsStore)
	accountsController := NewAccountsController(cfg.Database, cfg.OAuthFlow, cfg.Tokens, cfg.AuditService, cfg.OAuthRedirectURL)
	dashboardController := NewDashboardController(cfg.Database, cfg.Cache)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Account management and OAuth connect flow
	router.GET("/api/accounts", accountsController.ListAccounts)
	router.GET("/api/accounts/:id", accountsController.GetAccount)
	router.GET("/api/accounts/:id/activity", accountsController.GetAccountActivity)
	router.POST("/api/accounts/connect", accountsController.ConnectAccount)
	router.GET("/api/accounts/oauth/callback", accountsController.OAuthCallback)

	// Sync triggering, status and progress streaming
	router.POST("/api/accounts/:id/sync", syncController.TriggerSync)
	router.GET("/api/accounts/:id/sync/status", syncController.GetSyncStatus)
	router.GET("/api/sync/progress", syncController.StreamProgress)

	// Synced data for the dashboard
	router.GET("/api/dashboard", dashboardController.GetDashboard)
	router.GET("/api/accounts/:id/locations", dashboardController.GetLocations)
	router.GET("/api/locations/:id/reviews", dashboardController.GetLocationReviews)

	// Listing sync settings and scheduler control
	if cfg.SettingsStore != nil {
		settingsController := NewListingSyncController(cfg.SettingsStore, cfg.Scheduler, cfg.AuditService)
		router.GET("/api/settings/sync", settingsController.GetSettings)
		router.PUT("/api/settings/sync", settingsController.UpdateSettings)
		router.POST("/api/settings/sync/run", settingsController.SyncNow)
	}

	// Audit trail
	if cfg.AuditService != nil {
		auditController := NewAuditController(cfg.AuditService)
		router.GET("/api/audit", auditController.GetAuditEvents)
	}

	// Sync outcome metrics
	if cfg.Metrics != nil {
		metricsController := NewMetricsController(cfg.Metrics)
		router.GET("/api/metrics/sync", metricsController.GetSummary)
	}

	return router
}
