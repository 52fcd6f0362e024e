package oauth2

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vkarpenko/placesync/internal/entities"
	"github.com/vkarpenko/placesync/internal/tokenstore"
)

// FlowResult contains the result of a completed connect flow.
type FlowResult struct {
	AccountID    string
	UserID       uint
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    *time.Time
	Scope        string
}

// FlowHandler drives the web connect flow: it issues authorization URLs,
// tracks pending states, and exchanges callback codes for stored tokens.
type FlowHandler struct {
	provider   *Provider
	tokenStore *tokenstore.TokenStore

	mu      sync.Mutex
	pending map[string]pendingFlow
}

type pendingFlow struct {
	accountID   string
	userID      uint
	redirectURL string
	createdAt   time.Time
}

// pendingTTL bounds how long an issued authorization URL stays valid.
const pendingTTL = 10 * time.Minute

// NewFlowHandler creates a new connect flow handler.
func NewFlowHandler(provider *Provider, store *tokenstore.TokenStore) *FlowHandler {
	return &FlowHandler{
		provider:   provider,
		tokenStore: store,
		pending:    make(map[string]pendingFlow),
	}
}

// StartConnect begins a connect flow for one account. Returns the
// authorization URL to redirect the user to.
func (h *FlowHandler) StartConnect(accountID string, userID uint, redirectURL string) (string, error) {
	authURL, state, err := h.provider.BuildAuthURL(redirectURL)
	if err != nil {
		return "", fmt.Errorf("failed to build auth URL: %w", err)
	}

	h.mu.Lock()
	h.prunePendingLocked()
	h.pending[state] = pendingFlow{
		accountID:   accountID,
		userID:      userID,
		redirectURL: redirectURL,
		createdAt:   time.Now(),
	}
	h.mu.Unlock()

	return authURL, nil
}

// CompleteConnect finishes the flow after the provider callback: it verifies
// the state, exchanges the code and persists the encrypted tokens.
func (h *FlowHandler) CompleteConnect(ctx context.Context, state, code string) (*FlowResult, error) {
	h.mu.Lock()
	flow, ok := h.pending[state]
	if ok {
		delete(h.pending, state)
	}
	h.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unknown or expired state parameter")
	}
	if code == "" {
		return nil, fmt.Errorf("no authorization code received")
	}

	tokenResp, err := h.provider.ExchangeCode(ctx, code, flow.redirectURL)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	result := &FlowResult{
		AccountID:    flow.accountID,
		UserID:       flow.userID,
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		TokenType:    tokenResp.TokenType,
		ExpiresAt:    tokenResp.ExpiresAt(),
		Scope:        tokenResp.Scope,
	}

	if h.tokenStore != nil {
		token := &entities.DecryptedToken{
			AccountID:    flow.accountID,
			UserID:       flow.userID,
			AccessToken:  tokenResp.AccessToken,
			RefreshToken: tokenResp.RefreshToken,
			TokenType:    tokenResp.TokenType,
			ExpiresAt:    result.ExpiresAt,
			Scope:        tokenResp.Scope,
		}

		if err := h.tokenStore.SaveToken(token); err != nil {
			return nil, fmt.Errorf("failed to save token: %w", err)
		}
	}

	return result, nil
}

// prunePendingLocked drops stale pending flows. Caller holds the lock.
func (h *FlowHandler) prunePendingLocked() {
	cutoff := time.Now().Add(-pendingTTL)
	for state, flow := range h.pending {
		if flow.createdAt.Before(cutoff) {
			delete(h.pending, state)
		}
	}
}
