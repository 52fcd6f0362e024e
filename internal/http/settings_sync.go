package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vkarpenko/placesync/internal/audit"
	"github.com/vkarpenko/placesync/internal/scheduler"
	"github.com/vkarpenko/placesync/internal/settingsstore"
)

// ListingSyncController handles listing sync settings and scheduler control.
type ListingSyncController struct {
	settingsStore *settingsstore.SettingsStore
	scheduler     *scheduler.ListingSyncScheduler
	auditService  *audit.Service
}

// NewListingSyncController creates a new controller.
func NewListingSyncController(store *settingsstore.SettingsStore, sched *scheduler.ListingSyncScheduler, auditService *audit.Service) *ListingSyncController {
	return &ListingSyncController{
		settingsStore: store,
		scheduler:     sched,
		auditService:  auditService,
	}
}

// SchedulePreset is a selectable cron schedule with a description.
type SchedulePreset struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// ListingSyncSettingsResponse is the response for GET /api/settings/sync
type ListingSyncSettingsResponse struct {
	Config    settingsstore.ListingSyncConfigInfo `json:"config"`
	NextRun   *time.Time                          `json:"next_run,omitempty"`
	IsRunning bool                                `json:"is_running"`
	IsSyncing bool                                `json:"is_syncing"`
	Presets   []SchedulePreset                    `json:"presets"`
}

// GetSettings returns current listing sync settings
func (c *ListingSyncController) GetSettings(ctx *gin.Context) {
	config := c.settingsStore.GetListingSyncConfigInfo()

	var nextRun *time.Time
	isRunning := false
	isSyncing := false
	if c.scheduler != nil {
		nextRun = c.scheduler.GetNextRunTime()
		isRunning = c.scheduler.IsRunning()
		isSyncing = c.scheduler.IsSyncing()
	}

	ctx.JSON(http.StatusOK, ListingSyncSettingsResponse{
		Config:    config,
		NextRun:   nextRun,
		IsRunning: isRunning,
		IsSyncing: isSyncing,
		Presets: []SchedulePreset{
			{Label: "Every 15 minutes", Value: "*/15 * * * *", Description: "Runs at :00, :15, :30, :45"},
			{Label: "Every 30 minutes", Value: "*/30 * * * *", Description: "Runs at :00, :30"},
			{Label: "Every hour", Value: "0 * * * *", Description: "Runs at the top of every hour"},
			{Label: "Every 6 hours", Value: "0 */6 * * *", Description: "Runs at midnight, 6am, noon, 6pm"},
			{Label: "Daily at midnight", Value: "0 0 * * *", Description: "Runs once daily at 00:00"},
		},
	})
}

// UpdateListingSyncSettingsRequest is the request body for PUT /api/settings/sync
type UpdateListingSyncSettingsRequest struct {
	Enabled          *bool  `json:"enabled"`
	Schedule         string `json:"schedule"`
	IncludeQuestions *bool  `json:"include_questions"`
	IncludePosts     *bool  `json:"include_posts"`
	IncludeMedia     *bool  `json:"include_media"`
}

// UpdateSettings saves listing sync settings and reschedules the cron job.
func (c *ListingSyncController) UpdateSettings(ctx *gin.Context) {
	userID := GetUserID(ctx)

	var req UpdateListingSyncSettingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, "invalid request: "+err.Error())
		return
	}

	if req.Schedule != "" {
		if err := settingsstore.ValidateCronSchedule(req.Schedule); err != nil {
			respondBadRequest(ctx, "invalid cron schedule: "+err.Error())
			return
		}
		if err := c.settingsStore.SetListingSyncSchedule(req.Schedule); err != nil {
			respondInternalError(ctx, err, "save sync schedule")
			return
		}
	}

	if req.Enabled != nil {
		if err := c.settingsStore.SetListingSyncEnabled(*req.Enabled); err != nil {
			respondInternalError(ctx, err, "save sync enabled")
			return
		}
	}
	if req.IncludeQuestions != nil {
		if err := c.settingsStore.SetIncludeQuestions(*req.IncludeQuestions); err != nil {
			respondInternalError(ctx, err, "save include questions")
			return
		}
	}
	if req.IncludePosts != nil {
		if err := c.settingsStore.SetIncludePosts(*req.IncludePosts); err != nil {
			respondInternalError(ctx, err, "save include posts")
			return
		}
	}
	if req.IncludeMedia != nil {
		if err := c.settingsStore.SetIncludeMedia(*req.IncludeMedia); err != nil {
			respondInternalError(ctx, err, "save include media")
			return
		}
	}

	if c.auditService != nil {
		c.auditService.LogSettings(userID, "sync_settings_updated", "Listing sync settings changed")
	}

	if c.scheduler != nil {
		if err := c.scheduler.Reschedule(); err != nil {
			respondInternalError(ctx, err, "reschedule sync")
			return
		}
	}

	respondSuccess(ctx, "settings saved", c.settingsStore.GetListingSyncConfigInfo())
}

// SyncNow triggers an immediate sweep over all connected accounts.
// POST /api/settings/sync/run
func (c *ListingSyncController) SyncNow(ctx *gin.Context) {
	if c.scheduler == nil {
		respondError(ctx, http.StatusServiceUnavailable, "scheduler not available")
		return
	}

	if c.scheduler.IsSyncing() {
		respondError(ctx, http.StatusConflict, "a sweep is already in progress")
		return
	}

	if err := c.scheduler.RunNow(); err != nil {
		respondInternalError(ctx, err, "run sync now")
		return
	}

	respondAccepted(ctx, "sweep started", nil)
}
