package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkarpenko/placesync/internal/database"
	"github.com/vkarpenko/placesync/internal/database/syncruns"
	"github.com/vkarpenko/placesync/internal/entities"
	"github.com/vkarpenko/placesync/internal/progress"
	"github.com/vkarpenko/placesync/internal/tasks"
)

func setupTestServer(t *testing.T) (*gin.Engine, *database.Database, *syncruns.Repository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tempDir, err := os.MkdirTemp("", "http-test-*")
	require.NoError(t, err)

	db, err := database.NewDatabase(filepath.Join(tempDir, "test.db"))
	require.NoError(t, err)

	taskCfg := tasks.DefaultConfig()
	taskCfg.Workers = 1
	taskClient, err := tasks.NewClient(filepath.Join(tempDir, "test.db"), taskCfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		taskClient.Close()
		db.Close()
		os.RemoveAll(tempDir)
	})

	runs := syncruns.NewRepository(db.DB)
	router := NewRouter(RouterConfig{
		Database:   db,
		Runs:       runs,
		Broker:     progress.NewBroker(),
		TaskClient: taskClient,
		Version:    "test",
	})

	return router, db, runs
}

func connectTestAccount(t *testing.T, db *database.Database, accountID string, userID uint) {
	t.Helper()
	require.NoError(t, db.SaveAccount(&entities.Account{
		ExternalID:  accountID,
		UserID:      userID,
		DisplayName: "Test Business",
	}))
}

func TestTriggerSync_UnknownAccount(t *testing.T) {
	router, _, _ := setupTestServer(t)

	req := httptest.NewRequest("POST", "/api/accounts/acct-999/sync", nil)
	req.Header.Set(UserIDHeader, "1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTriggerSync_Enqueues(t *testing.T) {
	router, db, _ := setupTestServer(t)
	connectTestAccount(t, db, "acct-101", 1)

	req := httptest.NewRequest("POST", "/api/accounts/acct-101/sync", nil)
	req.Header.Set(UserIDHeader, "1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sync queued", resp.Message)
}

func TestTriggerSync_ConflictWhenRunning(t *testing.T) {
	router, db, runs := setupTestServer(t)
	connectTestAccount(t, db, "acct-102", 1)
	require.NoError(t, runs.StartRun("acct-102", 1, "prov-1"))

	req := httptest.NewRequest("POST", "/api/accounts/acct-102/sync", nil)
	req.Header.Set(UserIDHeader, "1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTriggerSync_TenantIsolation(t *testing.T) {
	router, db, _ := setupTestServer(t)
	connectTestAccount(t, db, "acct-103", 1)

	// User 2 cannot trigger a sync on user 1's account
	req := httptest.NewRequest("POST", "/api/accounts/acct-103/sync", nil)
	req.Header.Set(UserIDHeader, "2")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSyncStatus(t *testing.T) {
	router, db, runs := setupTestServer(t)
	connectTestAccount(t, db, "acct-104", 1)
	require.NoError(t, runs.StartRun("acct-104", 1, "prov-2"))

	req := httptest.NewRequest("GET", "/api/accounts/acct-104/sync/status", nil)
	req.Header.Set(UserIDHeader, "1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var record entities.SyncRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, "acct-104", record.AccountID)
	assert.Equal(t, entities.SyncStatusRunning, record.Status)
}

func TestGetSyncStatus_NoRuns(t *testing.T) {
	router, db, _ := setupTestServer(t)
	connectTestAccount(t, db, "acct-105", 1)

	req := httptest.NewRequest("GET", "/api/accounts/acct-105/sync/status", nil)
	req.Header.Set(UserIDHeader, "1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamProgress_RequiresAccountID(t *testing.T) {
	router, _, _ := setupTestServer(t)

	req := httptest.NewRequest("GET", "/api/sync/progress", nil)
	req.Header.Set(UserIDHeader, "1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router, _, _ := setupTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "ok", health.Checks["database"])
}
