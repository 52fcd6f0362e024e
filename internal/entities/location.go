package entities

import (
	"time"
)

// Location is a normalized business location pulled from the provider.
// ExternalID plus AccountID identifies a location uniquely for upserts.
type Location struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// ExternalID is the provider resource name, usually
	// "accounts/{account}/locations/{location}" or a bare location id.
	ExternalID string `gorm:"size:512;not null;uniqueIndex:idx_location_external" json:"external_id"`
	AccountID  string `gorm:"size:255;not null;uniqueIndex:idx_location_external;index" json:"account_id"`
	UserID     uint   `gorm:"index" json:"user_id"`

	// SafeKey is ExternalID with every non-alphanumeric rune replaced by an
	// underscore. Stable secondary key safe for filenames and column names.
	SafeKey string `gorm:"size:512;index" json:"safe_key"`

	Title      string `gorm:"size:512" json:"title"`
	StoreCode  string `gorm:"size:255" json:"store_code"`
	Address    string `gorm:"size:1024" json:"address"`
	Phone      string `gorm:"size:64" json:"phone"`
	WebsiteURL string `gorm:"size:1024" json:"website_url"`

	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
	FollowerCount int     `json:"follower_count"`

	// IsActive is false only when the provider reports the location as
	// permanently closed.
	IsActive bool `json:"is_active"`
}

func (Location) TableName() string {
	return "locations"
}
