package oauth2

import (
	"errors"
	"fmt"
)

var (
	ErrTokenNotFound  = errors.New("token not found")
	ErrNoRefreshToken = errors.New("no refresh token available")
)

// TokenRequestError is a non-200 response from the provider token endpoint.
type TokenRequestError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *TokenRequestError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("token request failed: %s - %s", e.Code, e.Description)
	}
	return fmt.Sprintf("token request failed with status %d", e.StatusCode)
}
