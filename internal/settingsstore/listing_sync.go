package settingsstore

import (
	"os"
	"strconv"

	"github.com/vkarpenko/placesync/internal/entities"
	syncpkg "github.com/vkarpenko/placesync/internal/sync"
)

// ListingSyncConfig represents the effective configuration for listing sync
type ListingSyncConfig struct {
	Enabled          bool   `json:"enabled"`
	Schedule         string `json:"schedule"`
	IncludeQuestions bool   `json:"include_questions"`
	IncludePosts     bool   `json:"include_posts"`
	IncludeMedia     bool   `json:"include_media"`
}

// ListingSyncConfigInfo includes source information for each field
type ListingSyncConfigInfo struct {
	Enabled       bool   `json:"enabled"`
	EnabledSource string `json:"enabled_source"` // "database", "environment", "default"

	Schedule       string `json:"schedule"`
	ScheduleSource string `json:"schedule_source"`

	IncludeQuestions bool `json:"include_questions"`
	IncludePosts     bool `json:"include_posts"`
	IncludeMedia     bool `json:"include_media"`
}

// GetListingSyncEnabled returns whether scheduled sync is enabled (database > env > default)
func (s *SettingsStore) GetListingSyncEnabled() bool {
	setting, err := s.db.GetSetting(entities.SettingKeySyncEnabled)
	if err == nil && setting.Value != "" {
		return setting.Value == "true" || setting.Value == "1"
	}

	if envVal := os.Getenv("LISTING_SYNC_ENABLED"); envVal != "" {
		return envVal == "true" || envVal == "1"
	}

	// Default: disabled
	return false
}

// GetListingSyncEnabledSource returns the source of the enabled setting
func (s *SettingsStore) GetListingSyncEnabledSource() string {
	setting, err := s.db.GetSetting(entities.SettingKeySyncEnabled)
	if err == nil && setting.Value != "" {
		return "database"
	}
	if envVal := os.Getenv("LISTING_SYNC_ENABLED"); envVal != "" {
		return "environment"
	}
	return "default"
}

// SetListingSyncEnabled saves the enabled setting to database
func (s *SettingsStore) SetListingSyncEnabled(enabled bool) error {
	return s.db.SetSetting(entities.SettingKeySyncEnabled, strconv.FormatBool(enabled))
}

// GetListingSyncSchedule returns the cron schedule (database > env > default)
func (s *SettingsStore) GetListingSyncSchedule() string {
	setting, err := s.db.GetSetting(entities.SettingKeySyncSchedule)
	if err == nil && setting.Value != "" {
		return setting.Value
	}

	if envVal := os.Getenv("LISTING_SYNC_SCHEDULE"); envVal != "" {
		return envVal
	}

	// Default: every 6 hours
	return "0 */6 * * *"
}

// GetListingSyncScheduleSource returns the source of the schedule setting
func (s *SettingsStore) GetListingSyncScheduleSource() string {
	setting, err := s.db.GetSetting(entities.SettingKeySyncSchedule)
	if err == nil && setting.Value != "" {
		return "database"
	}
	if envVal := os.Getenv("LISTING_SYNC_SCHEDULE"); envVal != "" {
		return "environment"
	}
	return "default"
}

// SetListingSyncSchedule saves the schedule to database
func (s *SettingsStore) SetListingSyncSchedule(schedule string) error {
	return s.db.SetSetting(entities.SettingKeySyncSchedule, schedule)
}

func (s *SettingsStore) getBoolSetting(key, envVar string) bool {
	setting, err := s.db.GetSetting(key)
	if err == nil && setting.Value != "" {
		return setting.Value == "true" || setting.Value == "1"
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal == "true" || envVal == "1"
	}
	return false
}

// GetIncludeQuestions returns whether the questions stage is enabled
func (s *SettingsStore) GetIncludeQuestions() bool {
	return s.getBoolSetting(entities.SettingKeySyncIncludeQuestions, "LISTING_SYNC_INCLUDE_QUESTIONS")
}

// SetIncludeQuestions saves the questions stage flag
func (s *SettingsStore) SetIncludeQuestions(include bool) error {
	return s.db.SetSetting(entities.SettingKeySyncIncludeQuestions, strconv.FormatBool(include))
}

// GetIncludePosts returns whether the posts stage is enabled
func (s *SettingsStore) GetIncludePosts() bool {
	return s.getBoolSetting(entities.SettingKeySyncIncludePosts, "LISTING_SYNC_INCLUDE_POSTS")
}

// SetIncludePosts saves the posts stage flag
func (s *SettingsStore) SetIncludePosts(include bool) error {
	return s.db.SetSetting(entities.SettingKeySyncIncludePosts, strconv.FormatBool(include))
}

// GetIncludeMedia returns whether the media stage is enabled
func (s *SettingsStore) GetIncludeMedia() bool {
	return s.getBoolSetting(entities.SettingKeySyncIncludeMedia, "LISTING_SYNC_INCLUDE_MEDIA")
}

// SetIncludeMedia saves the media stage flag
func (s *SettingsStore) SetIncludeMedia(include bool) error {
	return s.db.SetSetting(entities.SettingKeySyncIncludeMedia, strconv.FormatBool(include))
}

// GetListingSyncConfig returns the effective configuration
func (s *SettingsStore) GetListingSyncConfig() ListingSyncConfig {
	return ListingSyncConfig{
		Enabled:          s.GetListingSyncEnabled(),
		Schedule:         s.GetListingSyncSchedule(),
		IncludeQuestions: s.GetIncludeQuestions(),
		IncludePosts:     s.GetIncludePosts(),
		IncludeMedia:     s.GetIncludeMedia(),
	}
}

// GetListingSyncConfigInfo returns the configuration with source information
func (s *SettingsStore) GetListingSyncConfigInfo() ListingSyncConfigInfo {
	return ListingSyncConfigInfo{
		Enabled:          s.GetListingSyncEnabled(),
		EnabledSource:    s.GetListingSyncEnabledSource(),
		Schedule:         s.GetListingSyncSchedule(),
		ScheduleSource:   s.GetListingSyncScheduleSource(),
		IncludeQuestions: s.GetIncludeQuestions(),
		IncludePosts:     s.GetIncludePosts(),
		IncludeMedia:     s.GetIncludeMedia(),
	}
}

// SyncOptions materializes the optional stage flags for a run.
func (s *SettingsStore) SyncOptions() syncpkg.Options {
	return syncpkg.Options{
		IncludeQuestions: s.GetIncludeQuestions(),
		IncludePosts:     s.GetIncludePosts(),
		IncludeMedia:     s.GetIncludeMedia(),
	}
}
