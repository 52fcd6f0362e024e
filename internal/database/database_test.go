package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vkarpenko/placesync/internal/entities"
)

func setupTestDB(t *testing.T) (*Database, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "database-test-*")
	require.NoError(t, err)

	db, err := NewDatabase(filepath.Join(tempDir, "test.db"))
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.RemoveAll(tempDir)
	}

	return db, cleanup
}

func TestNewDatabase(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	// Migrations should have created the core tables.
	for _, table := range []string{"accounts", "locations", "reviews", "sync_records", "audit_events"} {
		assert.True(t, db.DB.Migrator().HasTable(table), "expected table %s", table)
	}
}

func TestSaveAccount(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	t.Run("creates new account", func(t *testing.T) {
		account := &entities.Account{
			ExternalID:  "acct-100",
			UserID:      1,
			DisplayName: "Main Street Bakery",
		}
		require.NoError(t, db.SaveAccount(account))
		assert.NotZero(t, account.ID)
	})

	t.Run("updates existing account in place", func(t *testing.T) {
		account := &entities.Account{
			ExternalID:  "acct-100",
			UserID:      1,
			DisplayName: "Main Street Bakery & Cafe",
		}
		require.NoError(t, db.SaveAccount(account))

		accounts, err := db.GetAccountsForUser(1)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "Main Street Bakery & Cafe", accounts[0].DisplayName)
	})

	t.Run("same external id under another user is a new row", func(t *testing.T) {
		account := &entities.Account{
			ExternalID: "acct-100",
			UserID:     2,
		}
		require.NoError(t, db.SaveAccount(account))

		all, err := db.GetAllAccounts()
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestGetAccountForUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, db.SaveAccount(&entities.Account{
		ExternalID: "acct-200",
		UserID:     1,
	}))

	t.Run("returns owned account", func(t *testing.T) {
		account, err := db.GetAccountForUser(context.Background(), "acct-200", 1)
		require.NoError(t, err)
		assert.Equal(t, "acct-200", account.ExternalID)
		assert.Equal(t, uint(1), account.UserID)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := db.GetAccountForUser(context.Background(), "acct-999", 1)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("account of another user is not visible", func(t *testing.T) {
		_, err := db.GetAccountForUser(context.Background(), "acct-200", 2)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestTouchAccountSync(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, db.SaveAccount(&entities.Account{
		ExternalID: "acct-300",
		UserID:     1,
	}))

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.TouchAccountSync("acct-300", 1, at))

	account, err := db.GetAccountForUser(context.Background(), "acct-300", 1)
	require.NoError(t, err)
	require.NotNil(t, account.LastSyncedAt)
	assert.True(t, account.LastSyncedAt.Equal(at))
}

func TestLocationAndReviewQueries(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, db.DB.Create(&entities.Location{
		ExternalID: "locations/1",
		AccountID:  "acct-400",
		UserID:     1,
		Title:      "Harbor View Diner",
	}).Error)
	require.NoError(t, db.DB.Create(&entities.Location{
		AccountID:  "acct-400",
		ExternalID: "locations/2",
		UserID:     1,
		Title:      "Airport Kiosk",
	}).Error)
	require.NoError(t, db.DB.Create(&entities.Review{
		ExternalID:         "reviews/1",
		LocationExternalID: "locations/1",
		AccountID:          "acct-400",
		UserID:             1,
		StarRating:         4,
	}).Error)

	t.Run("locations ordered by title", func(t *testing.T) {
		locations, err := db.GetLocationsForUser("acct-400", 1)
		require.NoError(t, err)
		require.Len(t, locations, 2)
		assert.Equal(t, "Airport Kiosk", locations[0].Title)
	})

	t.Run("locations scoped to user", func(t *testing.T) {
		locations, err := db.GetLocationsForUser("acct-400", 2)
		require.NoError(t, err)
		assert.Empty(t, locations)
	})

	t.Run("reviews for location", func(t *testing.T) {
		reviews, err := db.GetReviewsForLocation("locations/1", 1)
		require.NoError(t, err)
		require.Len(t, reviews, 1)
		assert.Equal(t, 4, reviews[0].StarRating)
	})
}

func TestSettings(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	t.Run("missing key", func(t *testing.T) {
		_, err := db.GetSetting("missing")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("set, update and delete", func(t *testing.T) {
		require.NoError(t, db.SetSetting("listing_sync_enabled", "true"))

		setting, err := db.GetSetting("listing_sync_enabled")
		require.NoError(t, err)
		assert.Equal(t, "true", setting.Value)

		require.NoError(t, db.SetSetting("listing_sync_enabled", "false"))
		setting, err = db.GetSetting("listing_sync_enabled")
		require.NoError(t, err)
		assert.Equal(t, "false", setting.Value)

		require.NoError(t, db.DeleteSetting("listing_sync_enabled"))
		_, err = db.GetSetting("listing_sync_enabled")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}
