package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Provider
		OAuth2
		ListingSync
		Audit
		Global
		Database
		Cache
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	// Provider configures the business-listing API client.
	Provider struct {
		BaseURL        string
		PageSize       int
		RequestTimeout time.Duration
	}
	OAuth2 struct {
		ClientID     string
		ClientSecret string
		RedirectURL  string

		RefreshEnabled bool          // Enable background token refresh
		CheckInterval  time.Duration // How often to check for expiring tokens (default: 30m)
		RefreshMargin  time.Duration // Refresh tokens expiring within this duration (default: 15m)
	}
	ListingSync struct {
		Enabled  bool
		Schedule string // Cron format: "0 */6 * * *" = every 6 hours
	}
	Audit struct {
		Dir           string
		RetentionDays int // Days to keep audit events (default: 30)
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Cache struct {
		TTL time.Duration
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("audit_dir", "./audit")
	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("cache_ttl", "5m")

	// Provider API defaults
	v.SetDefault("provider_base_url", DefaultProviderBaseURL)
	v.SetDefault("provider_page_size", 100)
	v.SetDefault("provider_request_timeout", "30s")

	// Listing sync defaults
	v.SetDefault("listing_sync_enabled", false)
	v.SetDefault("listing_sync_schedule", "0 */6 * * *") // Every 6 hours

	// OAuth2 defaults
	v.SetDefault("oauth2_client_id", "")
	v.SetDefault("oauth2_client_secret", "")
	v.SetDefault("oauth2_redirect_url", "")
	v.SetDefault("oauth2_refresh_enabled", true)
	v.SetDefault("oauth2_check_interval", "30m")
	v.SetDefault("oauth2_refresh_margin", "15m")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Provider: Provider{
			BaseURL:        v.GetString("PROVIDER_BASE_URL"),
			PageSize:       v.GetInt("PROVIDER_PAGE_SIZE"),
			RequestTimeout: v.GetDuration("PROVIDER_REQUEST_TIMEOUT"),
		},
		OAuth2: OAuth2{
			ClientID:       v.GetString("OAUTH2_CLIENT_ID"),
			ClientSecret:   v.GetString("OAUTH2_CLIENT_SECRET"),
			RedirectURL:    v.GetString("OAUTH2_REDIRECT_URL"),
			RefreshEnabled: v.GetBool("OAUTH2_REFRESH_ENABLED"),
			CheckInterval:  v.GetDuration("OAUTH2_CHECK_INTERVAL"),
			RefreshMargin:  v.GetDuration("OAUTH2_REFRESH_MARGIN"),
		},
		ListingSync: ListingSync{
			Enabled:  v.GetBool("LISTING_SYNC_ENABLED"),
			Schedule: v.GetString("LISTING_SYNC_SCHEDULE"),
		},
		Audit: Audit{
			Dir:           v.GetString("AUDIT_DIR"),
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Cache: Cache{
			TTL: v.GetDuration("CACHE_TTL"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
	}
}
