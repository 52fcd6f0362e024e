package entities

import (
	"time"
)

// Post is a normalized local post (update, offer, event) for one location.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ExternalID string `gorm:"size:512;not null;uniqueIndex:idx_post_external" json:"external_id"`
	AccountID  string `gorm:"size:255;not null;uniqueIndex:idx_post_external;index" json:"account_id"`
	UserID     uint   `gorm:"index" json:"user_id"`

	LocationExternalID string `gorm:"size:512;index" json:"location_external_id"`

	Summary   string `gorm:"type:text" json:"summary"`
	TopicType string `gorm:"size:64" json:"topic_type"`
	State     string `gorm:"size:64" json:"state"`

	CallToActionURL string `gorm:"size:1024" json:"call_to_action_url,omitempty"`
	MediaURL        string `gorm:"size:1024" json:"media_url,omitempty"`

	PublishedAt time.Time `json:"published_at"`
}

func (Post) TableName() string {
	return "posts"
}
