package oauth2

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vkarpenko/placesync/internal/tokenstore"
)

// TokenService hands out valid access tokens for connected accounts,
// refreshing stored credentials when they are close to expiry. Implements
// the token provider the sync pipeline depends on.
type TokenService struct {
	provider *Provider
	store    *tokenstore.TokenStore

	// refreshMargin is how long before expiry a token counts as expiring.
	refreshMargin time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// TokenServiceOption configures a TokenService.
type TokenServiceOption func(*TokenService)

// WithRefreshMargin sets the time before expiry that triggers a refresh.
func WithRefreshMargin(d time.Duration) TokenServiceOption {
	return func(s *TokenService) {
		s.refreshMargin = d
	}
}

// NewTokenService creates a token service over the given provider and store.
func NewTokenService(provider *Provider, store *tokenstore.TokenStore, opts ...TokenServiceOption) *TokenService {
	s := &TokenService{
		provider:      provider,
		store:         store,
		refreshMargin: 5 * time.Minute,
		locks:         make(map[string]*sync.Mutex),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// GetValidAccessToken returns a plaintext access token for the account,
// refreshing it first when it is expired or expiring soon. Concurrent calls
// for the same account serialize so the refresh happens once.
func (s *TokenService) GetValidAccessToken(ctx context.Context, accountID string) (string, error) {
	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	token, err := s.store.GetToken(accountID)
	if err != nil {
		return "", fmt.Errorf("failed to load token for account %s: %w", accountID, err)
	}
	if token == nil {
		return "", fmt.Errorf("account %s: %w", accountID, ErrTokenNotFound)
	}

	if s.isExpiringSoon(token.ExpiresAt) {
		if token.RefreshToken == "" {
			return "", fmt.Errorf("account %s: %w", accountID, ErrNoRefreshToken)
		}

		resp, err := s.provider.RefreshToken(ctx, token.RefreshToken)
		if err != nil {
			return "", fmt.Errorf("failed to refresh token for account %s: %w", accountID, err)
		}

		// Keep the existing refresh token unless the provider rotated it.
		newRefreshToken := resp.RefreshToken
		if newRefreshToken == "" {
			newRefreshToken = token.RefreshToken
		}

		if err := s.store.UpdateTokenAfterRefresh(accountID, resp.AccessToken, newRefreshToken, resp.ExpiresAt()); err != nil {
			return "", fmt.Errorf("failed to save refreshed token for account %s: %w", accountID, err)
		}

		_ = s.store.UpdateLastUsed(accountID)
		return resp.AccessToken, nil
	}

	_ = s.store.UpdateLastUsed(accountID)
	return token.AccessToken, nil
}

func (s *TokenService) isExpiringSoon(expiresAt *time.Time) bool {
	if expiresAt == nil {
		return false // No expiry means the token does not expire
	}
	return time.Now().Add(s.refreshMargin).After(*expiresAt)
}

func (s *TokenService) accountLock(accountID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[accountID] = lock
	}
	return lock
}
