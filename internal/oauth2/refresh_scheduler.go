package oauth2

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/vkarpenko/placesync/internal/audit"
	"github.com/vkarpenko/placesync/internal/tokenstore"
)

// RefreshConfig contains configuration for the token refresh scheduler
type RefreshConfig struct {
	Enabled       bool          // Enable background refresh
	CheckInterval time.Duration // How often to check for expiring tokens (default: 30m)
	RefreshMargin time.Duration // Refresh tokens expiring within this duration (default: 15m)
}

// DefaultRefreshConfig returns sensible defaults for token refresh
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Enabled:       true,
		CheckInterval: 30 * time.Minute,
		RefreshMargin: 15 * time.Minute,
	}
}

// RefreshScheduler proactively refreshes expiring account tokens in the
// background so sync runs rarely hit an expired token.
type RefreshScheduler struct {
	mu sync.Mutex

	tokenStore   *tokenstore.TokenStore
	provider     *Provider
	config       RefreshConfig
	auditService *audit.Service

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewRefreshScheduler creates a new token refresh scheduler
func NewRefreshScheduler(
	store *tokenstore.TokenStore,
	provider *Provider,
	config RefreshConfig,
	auditService *audit.Service,
) *RefreshScheduler {
	return &RefreshScheduler{
		tokenStore:   store,
		provider:     provider,
		config:       config,
		auditService: auditService,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start begins the background refresh scheduler
func (s *RefreshScheduler) Start(ctx context.Context) {
	if !s.config.Enabled {
		log.Println("OAuth2 token refresh scheduler disabled")
		close(s.doneCh)
		return
	}

	log.Printf("OAuth2 token refresh scheduler started (interval: %v, margin: %v)",
		s.config.CheckInterval, s.config.RefreshMargin)

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	// Run an initial check
	s.refreshExpiringTokens(ctx)

	for {
		select {
		case <-ticker.C:
			s.refreshExpiringTokens(ctx)
		case <-s.stopCh:
			log.Println("OAuth2 token refresh scheduler stopping")
			close(s.doneCh)
			return
		case <-ctx.Done():
			log.Println("OAuth2 token refresh scheduler context cancelled")
			close(s.doneCh)
			return
		}
	}
}

// Stop gracefully stops the scheduler
func (s *RefreshScheduler) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *RefreshScheduler) refreshExpiringTokens(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.tokenStore.ListTokens()
	if err != nil {
		log.Printf("Error listing tokens for refresh: %v", err)
		return
	}

	for _, token := range tokens {
		if !token.IsExpiringSoon(s.config.RefreshMargin) {
			continue
		}

		// Need the decrypted refresh token to call the provider
		decrypted, err := s.tokenStore.GetToken(token.AccountID)
		if err != nil {
			log.Printf("Failed to get token for account %s: %v", token.AccountID, err)
			s.logAudit(token.UserID, token.AccountID, err)
			continue
		}

		if decrypted.RefreshToken == "" {
			log.Printf("No refresh token available for account %s", token.AccountID)
			s.logAudit(token.UserID, token.AccountID, ErrNoRefreshToken)
			continue
		}

		log.Printf("Refreshing expiring token for account %s", token.AccountID)

		resp, err := s.provider.RefreshToken(ctx, decrypted.RefreshToken)
		if err != nil {
			log.Printf("Failed to refresh token for account %s: %v", token.AccountID, err)
			s.logAudit(token.UserID, token.AccountID, err)
			continue
		}

		newRefreshToken := resp.RefreshToken
		if newRefreshToken == "" {
			newRefreshToken = decrypted.RefreshToken
		}

		if err := s.tokenStore.UpdateTokenAfterRefresh(
			token.AccountID,
			resp.AccessToken,
			newRefreshToken,
			resp.ExpiresAt(),
		); err != nil {
			log.Printf("Failed to save refreshed token for account %s: %v", token.AccountID, err)
			s.logAudit(token.UserID, token.AccountID, err)
			continue
		}

		log.Printf("Successfully refreshed token for account %s", token.AccountID)
	}
}

func (s *RefreshScheduler) logAudit(userID uint, accountID string, err error) {
	if s.auditService == nil {
		return
	}
	s.auditService.LogAuth(userID, accountID, "token_refresh", err)
}
