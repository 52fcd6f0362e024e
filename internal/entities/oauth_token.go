package entities

import (
	"time"
)

// OAuthToken stores encrypted provider credentials for one connected account.
// Access and refresh tokens are base64-encoded AES-256-GCM ciphertext.
type OAuthToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// AccountID is the provider-side account identifier the tokens belong to.
	AccountID string `gorm:"size:255;not null;uniqueIndex" json:"account_id"`
	UserID    uint   `gorm:"index" json:"user_id"`

	AccessToken  string `gorm:"type:text;not null" json:"-"`
	RefreshToken string `gorm:"type:text" json:"-"`

	TokenType string     `gorm:"size:50;default:Bearer" json:"token_type"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Scope     string     `gorm:"type:text" json:"scope,omitempty"`

	LastUsedAt      *time.Time `json:"last_used_at,omitempty"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at,omitempty"`
}

func (OAuthToken) TableName() string {
	return "oauth_tokens"
}

// IsExpiringSoon reports whether the access token expires within the given
// duration. Tokens without an expiry never expire.
func (t *OAuthToken) IsExpiringSoon(within time.Duration) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return time.Now().Add(within).After(*t.ExpiresAt)
}

// DecryptedToken holds plaintext token values for in-memory use only.
type DecryptedToken struct {
	AccountID    string
	UserID       uint
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    *time.Time
	Scope        string
}
