package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Listing sync settings
	SettingKeySyncEnabled          = "listing_sync_enabled"
	SettingKeySyncSchedule         = "listing_sync_schedule"
	SettingKeySyncIncludeQuestions = "listing_sync_include_questions"
	SettingKeySyncIncludePosts     = "listing_sync_include_posts"
	SettingKeySyncIncludeMedia     = "listing_sync_include_media"
)
