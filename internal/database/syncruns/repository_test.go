package syncruns

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vkarpenko/placesync/internal/entities"
	syncpkg "github.com/vkarpenko/placesync/internal/sync"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_syncruns_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.SyncRecord{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_StartRun(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.StartRun("acc-1", 1, "sync-id-1")
	require.NoError(t, err)

	record, err := repo.GetRun("acc-1", 1)
	require.NoError(t, err)
	assert.Equal(t, "sync-id-1", record.SyncID)
	assert.Equal(t, entities.SyncStatusRunning, record.Status)
	assert.Equal(t, string(syncpkg.StageInit), record.Stage)
	assert.Nil(t, record.CompletedAt)
}

func TestRepository_StartRun_Reset(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.StartRun("acc-1", 1, "sync-id-1"))
	require.NoError(t, repo.UpdateStage("acc-1", syncpkg.StageReviewsFetch))
	require.NoError(t, repo.FailRun("acc-1", syncpkg.StageReviewsFetch, errors.New("boom")))

	// A new run resets counters, error and stage.
	require.NoError(t, repo.StartRun("acc-1", 1, "sync-id-2"))

	record, err := repo.GetRun("acc-1", 1)
	require.NoError(t, err)
	assert.Equal(t, "sync-id-2", record.SyncID)
	assert.Equal(t, entities.SyncStatusRunning, record.Status)
	assert.Equal(t, string(syncpkg.StageInit), record.Stage)
	assert.Equal(t, "", record.Error)
	assert.Nil(t, record.CompletedAt)
}

func TestRepository_UpdateStage(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.StartRun("acc-1", 1, "sync-id-1"))
	require.NoError(t, repo.UpdateStage("acc-1", syncpkg.StageLocationsFetch))

	record, err := repo.GetRun("acc-1", 1)
	require.NoError(t, err)
	assert.Equal(t, string(syncpkg.StageLocationsFetch), record.Stage)
	assert.Equal(t, entities.SyncStatusRunning, record.Status)
}

func TestRepository_FailRun(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.StartRun("acc-1", 1, "sync-id-1"))
	require.NoError(t, repo.FailRun("acc-1", syncpkg.StageLocationsFetch, errors.New("provider returned 500")))

	record, err := repo.GetRun("acc-1", 1)
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusError, record.Status)
	assert.Equal(t, string(syncpkg.StageLocationsFetch), record.Stage)
	assert.Equal(t, "provider returned 500", record.Error)
	assert.NotNil(t, record.CompletedAt)
}

func TestRepository_IsRunActive(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	active, err := repo.IsRunActive("acc-1")
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, repo.StartRun("acc-1", 1, "sync-id-1"))

	active, err = repo.IsRunActive("acc-1")
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, repo.FailRun("acc-1", syncpkg.StageTransaction, errors.New("boom")))

	active, err = repo.IsRunActive("acc-1")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestRepository_IsRunActive_Stale(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.StartRun("acc-1", 1, "sync-id-1"))

	// Simulate a run abandoned 15 minutes ago.
	repo.db.Model(&entities.SyncRecord{}).
		Where("account_id = ?", "acc-1").
		Update("updated_at", time.Now().Add(-15*time.Minute))

	active, err := repo.IsRunActive("acc-1")
	require.NoError(t, err)
	assert.False(t, active)

	record, err := repo.GetRun("acc-1", 1)
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusError, record.Status)
	assert.Equal(t, "sync was interrupted", record.Error)
}
