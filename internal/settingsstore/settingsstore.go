// Package settingsstore resolves runtime-tunable settings with the
// precedence database > environment > default. Values changed through the
// settings API land in the database and win over deployment environment.
package settingsstore

import (
	"github.com/vkarpenko/placesync/internal/database"
)

type SettingsStore struct {
	db *database.Database
}

func New(db *database.Database) *SettingsStore {
	return &SettingsStore{db: db}
}
