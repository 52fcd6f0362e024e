package provider

import (
	"errors"
	"fmt"
)

// ErrInvalidToken indicates the provided access token was rejected
var ErrInvalidToken = errors.New("invalid or expired provider access token")

// ErrRateLimited indicates the provider rate limit was exceeded
var ErrRateLimited = errors.New("provider API rate limit exceeded")

// ServerError represents a 5xx error from the provider API
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("provider server error: HTTP %d", e.StatusCode)
}

// FetchError represents any other non-OK response from the provider API
type FetchError struct {
	StatusCode int
	Body       string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("provider fetch failed: HTTP %d: %s", e.StatusCode, e.Body)
}
