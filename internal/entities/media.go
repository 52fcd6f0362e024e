package entities

import (
	"time"
)

// Media is a normalized photo or video attached to one location.
type Media struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ExternalID string `gorm:"size:512;not null;uniqueIndex:idx_media_external" json:"external_id"`
	AccountID  string `gorm:"size:255;not null;uniqueIndex:idx_media_external;index" json:"account_id"`
	UserID     uint   `gorm:"index" json:"user_id"`

	LocationExternalID string `gorm:"size:512;index" json:"location_external_id"`

	// Format is the provider media format token, e.g. "PHOTO" or "VIDEO".
	Format       string `gorm:"size:32" json:"format"`
	Category     string `gorm:"size:64" json:"category"`
	SourceURL    string `gorm:"size:1024" json:"source_url"`
	ThumbnailURL string `gorm:"size:1024" json:"thumbnail_url"`

	UploadedAt time.Time `json:"uploaded_at"`
}

func (Media) TableName() string {
	return "media_items"
}
