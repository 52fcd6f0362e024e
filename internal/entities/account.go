package entities

import (
	"time"
)

// Account is a connected business-listing provider account owned by one
// dashboard user. All synced resources hang off an account.
type Account struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// ExternalID is the provider-side account identifier, e.g. "1055522..."
	// or a full resource name "accounts/1055522...".
	ExternalID string `gorm:"size:255;not null;uniqueIndex:idx_account_user" json:"external_id"`
	UserID     uint   `gorm:"not null;uniqueIndex:idx_account_user;index" json:"user_id"`

	DisplayName string `gorm:"size:255" json:"display_name"`

	// LastSyncedAt is updated after every successful sync run.
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

func (Account) TableName() string {
	return "accounts"
}
