package http

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vkarpenko/placesync/internal/database"
	"github.com/vkarpenko/placesync/internal/database/syncruns"
	"github.com/vkarpenko/placesync/internal/progress"
	"github.com/vkarpenko/placesync/internal/settingsstore"
	syncpkg "github.com/vkarpenko/placesync/internal/sync"
	"github.com/vkarpenko/placesync/internal/tasks"
	"gorm.io/gorm"
)

// SyncController handles sync triggering, run status and progress streaming.
type SyncController struct {
	db            *database.Database
	runs          *syncruns.Repository
	orchestrator  *syncpkg.Orchestrator
	broker        *progress.Broker
	taskClient    *tasks.Client
	settingsStore *settingsstore.SettingsStore
}

// NewSyncController creates a new SyncController. taskClient may be nil, in
// which case triggered syncs run in-process.
func NewSyncController(db *database.Database, runs *syncruns.Repository, orchestrator *syncpkg.Orchestrator, broker *progress.Broker, taskClient *tasks.Client, settingsStore *settingsstore.SettingsStore) *SyncController {
	return &SyncController{
		db:            db,
		runs:          runs,
		orchestrator:  orchestrator,
		broker:        broker,
		taskClient:    taskClient,
		settingsStore: settingsStore,
	}
}

// TriggerSync handles POST /api/accounts/:id/sync
// Enqueues a sync for the account unless one is already running.
func (sc *SyncController) TriggerSync(c *gin.Context) {
	userID := GetUserID(c)
	accountID := c.Param("id")

	account, err := sc.db.GetAccountForUser(c.Request.Context(), accountID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "account")
			return
		}
		respondInternalError(c, err, "trigger sync")
		return
	}

	active, err := sc.runs.IsRunActive(account.ExternalID)
	if err != nil {
		respondInternalError(c, err, "trigger sync")
		return
	}
	if active {
		respondError(c, http.StatusConflict, "sync already running for this account")
		return
	}

	opts := sc.syncOptions(c)

	if sc.taskClient != nil {
		task := tasks.SyncAccountTask{
			AccountID:        account.ExternalID,
			UserID:           userID,
			IncludeQuestions: opts.IncludeQuestions,
			IncludePosts:     opts.IncludePosts,
			IncludeMedia:     opts.IncludeMedia,
		}
		ids, err := sc.taskClient.Add(task).Save()
		if err != nil {
			respondInternalError(c, err, "enqueue sync task")
			return
		}
		respondAccepted(c, "sync queued", gin.H{
			"account_id": account.ExternalID,
			"task_id":    firstOrEmpty(ids),
		})
		return
	}

	// No task queue: run in the background of this process.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()
		if _, err := sc.orchestrator.Run(ctx, account.ExternalID, userID, opts); err != nil {
			log.Printf("Sync for account %s failed: %v", account.ExternalID, err)
		}
	}()

	respondAccepted(c, "sync started", gin.H{"account_id": account.ExternalID})
}

// syncOptions resolves the optional stage flags: explicit query parameters
// win over the stored settings.
func (sc *SyncController) syncOptions(c *gin.Context) syncpkg.Options {
	var opts syncpkg.Options
	if sc.settingsStore != nil {
		opts = sc.settingsStore.SyncOptions()
	}
	if v, ok := c.GetQuery("include_questions"); ok {
		opts.IncludeQuestions = v == "true" || v == "1"
	}
	if v, ok := c.GetQuery("include_posts"); ok {
		opts.IncludePosts = v == "true" || v == "1"
	}
	if v, ok := c.GetQuery("include_media"); ok {
		opts.IncludeMedia = v == "true" || v == "1"
	}
	return opts
}

// GetSyncStatus handles GET /api/accounts/:id/sync/status
// Returns the persisted state of the account's latest sync run.
func (sc *SyncController) GetSyncStatus(c *gin.Context) {
	userID := GetUserID(c)
	accountID := c.Param("id")

	record, err := sc.runs.GetRun(accountID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "sync run")
			return
		}
		respondInternalError(c, err, "sync status")
		return
	}

	c.JSON(http.StatusOK, record)
}

// StreamProgress handles GET /api/sync/progress?account_id=...
// Streams progress events for the account's runs as server-sent events
// until the client disconnects.
func (sc *SyncController) StreamProgress(c *gin.Context) {
	userID := GetUserID(c)
	accountID := c.Query("account_id")
	if accountID == "" {
		respondBadRequest(c, "account_id is required")
		return
	}

	if _, err := sc.db.GetAccountForUser(c.Request.Context(), accountID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "account")
			return
		}
		respondInternalError(c, err, "progress stream")
		return
	}

	events, cancel := sc.broker.Subscribe(accountID)
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("progress", event)
			return true
		case <-keepalive.C:
			c.SSEvent("keepalive", time.Now().Format(time.RFC3339))
			return true
		case <-clientGone:
			return false
		}
	})
}

func firstOrEmpty(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}
