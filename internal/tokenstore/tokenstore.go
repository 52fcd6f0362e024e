// Package tokenstore provides secure storage for provider OAuth tokens using
// AES-256-GCM encryption. Tokens live in the main application database,
// keyed by the provider account id.
package tokenstore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/vkarpenko/placesync/internal/crypto"
	"github.com/vkarpenko/placesync/internal/entities"
)

const (
	// EnvEncryptionKey is the environment variable for the encryption key
	EnvEncryptionKey = "TOKEN_ENCRYPTION_KEY"

	// DefaultKeyFileName is the default name for the key file
	DefaultKeyFileName = ".placesync-token-key"
)

// TokenStore provides secure storage for OAuth tokens
type TokenStore struct {
	db        *gorm.DB
	encryptor *crypto.Encryptor
}

// Config holds configuration for the token store
type Config struct {
	// EncryptionKey is the base64-encoded 32-byte encryption key.
	// If empty, will try to load from environment or key file.
	EncryptionKey string

	// KeyFilePath is the path to the encryption key file.
	// If empty, defaults to ~/.placesync-token-key.
	KeyFilePath string
}

// New creates a new TokenStore over an already opened database.
func New(db *gorm.DB, cfg Config) (*TokenStore, error) {
	key, err := resolveEncryptionKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve encryption key: %w", err)
	}

	encryptor, err := crypto.NewEncryptorFromBase64(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	return &TokenStore{
		db:        db,
		encryptor: encryptor,
	}, nil
}

// resolveEncryptionKey determines the encryption key from various sources
func resolveEncryptionKey(cfg Config) (string, error) {
	// Priority 1: Explicitly provided key
	if cfg.EncryptionKey != "" {
		return cfg.EncryptionKey, nil
	}

	// Priority 2: Environment variable
	if envKey := os.Getenv(EnvEncryptionKey); envKey != "" {
		return envKey, nil
	}

	// Priority 3: Key file
	keyFilePath := cfg.KeyFilePath
	if keyFilePath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		keyFilePath = filepath.Join(homeDir, DefaultKeyFileName)
	}

	if data, err := os.ReadFile(keyFilePath); err == nil {
		return string(data), nil
	}

	// Generate new key and save it
	newKey, err := crypto.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate encryption key: %w", err)
	}

	if err := os.WriteFile(keyFilePath, []byte(newKey), 0600); err != nil {
		return "", fmt.Errorf("failed to save encryption key to %s: %w", keyFilePath, err)
	}

	return newKey, nil
}

// SaveToken saves an OAuth token with encryption.
func (s *TokenStore) SaveToken(token *entities.DecryptedToken) error {
	encAccessToken, err := s.encryptor.Encrypt(token.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	encRefreshToken, err := s.encryptor.Encrypt(token.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	dbToken := &entities.OAuthToken{
		AccountID:    token.AccountID,
		UserID:       token.UserID,
		AccessToken:  encAccessToken,
		RefreshToken: encRefreshToken,
		TokenType:    token.TokenType,
		ExpiresAt:    token.ExpiresAt,
		Scope:        token.Scope,
	}

	// Upsert: update if exists, create if not
	result := s.db.Where("account_id = ?", token.AccountID).
		Assign(map[string]interface{}{
			"user_id":       token.UserID,
			"access_token":  encAccessToken,
			"refresh_token": encRefreshToken,
			"token_type":    token.TokenType,
			"expires_at":    token.ExpiresAt,
			"scope":         token.Scope,
			"updated_at":    time.Now(),
		}).
		FirstOrCreate(dbToken)

	if result.Error != nil {
		return fmt.Errorf("failed to save token: %w", result.Error)
	}

	return nil
}

// GetToken retrieves and decrypts the OAuth token for an account. Returns
// nil without error when no token is stored.
func (s *TokenStore) GetToken(accountID string) (*entities.DecryptedToken, error) {
	var dbToken entities.OAuthToken
	result := s.db.Where("account_id = ?", accountID).First(&dbToken)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", result.Error)
	}

	return s.decryptToken(&dbToken)
}

// GetStoredToken returns the raw encrypted row, used to check expiry without
// decrypting.
func (s *TokenStore) GetStoredToken(accountID string) (*entities.OAuthToken, error) {
	var dbToken entities.OAuthToken
	result := s.db.Where("account_id = ?", accountID).First(&dbToken)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", result.Error)
	}
	return &dbToken, nil
}

// ListTokens returns all stored token rows without decrypting them.
func (s *TokenStore) ListTokens() ([]entities.OAuthToken, error) {
	var tokens []entities.OAuthToken
	result := s.db.Find(&tokens)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", result.Error)
	}
	return tokens, nil
}

// DeleteToken removes the token for an account.
func (s *TokenStore) DeleteToken(accountID string) error {
	result := s.db.Where("account_id = ?", accountID).Delete(&entities.OAuthToken{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete token: %w", result.Error)
	}
	return nil
}

// UpdateLastUsed updates the last_used_at timestamp for a token.
func (s *TokenStore) UpdateLastUsed(accountID string) error {
	now := time.Now()
	result := s.db.Model(&entities.OAuthToken{}).
		Where("account_id = ?", accountID).
		Update("last_used_at", now)
	if result.Error != nil {
		return fmt.Errorf("failed to update last used: %w", result.Error)
	}
	return nil
}

// UpdateTokenAfterRefresh updates the access token and, when provided, the
// refresh token after a refresh.
func (s *TokenStore) UpdateTokenAfterRefresh(accountID string, newAccessToken, newRefreshToken string, expiresAt *time.Time) error {
	encAccessToken, err := s.encryptor.Encrypt(newAccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	updates := map[string]interface{}{
		"access_token":      encAccessToken,
		"expires_at":        expiresAt,
		"last_refreshed_at": time.Now(),
	}

	// Only update refresh token if a new one was provided
	if newRefreshToken != "" {
		encRefreshToken, err := s.encryptor.Encrypt(newRefreshToken)
		if err != nil {
			return fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
		updates["refresh_token"] = encRefreshToken
	}

	result := s.db.Model(&entities.OAuthToken{}).
		Where("account_id = ?", accountID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update token: %w", result.Error)
	}

	return nil
}

// TokenInfo is a display-safe view of a stored token. The access token is
// masked and the refresh token is reported by presence only.
type TokenInfo struct {
	Connected       bool       `json:"connected"`
	AccessToken     string     `json:"access_token,omitempty"`
	HasRefreshToken bool       `json:"has_refresh_token"`
	TokenType       string     `json:"token_type,omitempty"`
	Scope           string     `json:"scope,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at,omitempty"`
}

// GetTokenInfo returns display info for an account's stored token without
// exposing the secret material. A zero-value TokenInfo means no token is
// stored for the account.
func (s *TokenStore) GetTokenInfo(accountID string) (TokenInfo, error) {
	dbToken, err := s.GetStoredToken(accountID)
	if err != nil {
		return TokenInfo{}, err
	}
	if dbToken == nil {
		return TokenInfo{}, nil
	}

	decrypted, err := s.decryptToken(dbToken)
	if err != nil {
		return TokenInfo{}, err
	}

	return TokenInfo{
		Connected:       true,
		AccessToken:     MaskToken(decrypted.AccessToken),
		HasRefreshToken: decrypted.RefreshToken != "",
		TokenType:       dbToken.TokenType,
		Scope:           dbToken.Scope,
		ExpiresAt:       dbToken.ExpiresAt,
		LastRefreshedAt: dbToken.LastRefreshedAt,
	}, nil
}

// MaskToken returns a masked version of a token for display.
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}

// decryptToken decrypts the sensitive fields of a token
func (s *TokenStore) decryptToken(dbToken *entities.OAuthToken) (*entities.DecryptedToken, error) {
	accessToken, err := s.encryptor.Decrypt(dbToken.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}

	refreshToken, err := s.encryptor.Decrypt(dbToken.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	return &entities.DecryptedToken{
		AccountID:    dbToken.AccountID,
		UserID:       dbToken.UserID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    dbToken.TokenType,
		ExpiresAt:    dbToken.ExpiresAt,
		Scope:        dbToken.Scope,
	}, nil
}
