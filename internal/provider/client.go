// Package provider implements the HTTP client for the external
// business-listing API: paginated listing of locations per account and of
// reviews, questions, posts and media per location.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL  = "https://mybusiness.googleapis.com/v4"
	defaultTimeout  = 30 * time.Second
	defaultPageSize = 100
)

// Client interfaces with the business-listing provider API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	pageSize   int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the provider API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithPageSize sets the page size requested from list endpoints.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithTimeout bounds each page request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a new provider API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL:  defaultBaseURL,
		pageSize: defaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListLocations fetches one page of locations for an account.
func (c *Client) ListLocations(ctx context.Context, token, accountID, pageToken string) (*LocationsPage, error) {
	endpoint := fmt.Sprintf("%s/accounts/%s/locations", c.baseURL, url.PathEscape(accountID))

	var page LocationsPage
	if err := c.getPage(ctx, token, endpoint, pageToken, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListReviews fetches one page of reviews for a location resource path.
func (c *Client) ListReviews(ctx context.Context, token, locationPath, pageToken string) (*ReviewsPage, error) {
	endpoint := fmt.Sprintf("%s/%s/reviews", c.baseURL, locationPath)

	var page ReviewsPage
	if err := c.getPage(ctx, token, endpoint, pageToken, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListQuestions fetches one page of questions for a location resource path.
func (c *Client) ListQuestions(ctx context.Context, token, locationPath, pageToken string) (*QuestionsPage, error) {
	endpoint := fmt.Sprintf("%s/%s/questions", c.baseURL, locationPath)

	var page QuestionsPage
	if err := c.getPage(ctx, token, endpoint, pageToken, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListPosts fetches one page of local posts for a location resource path.
func (c *Client) ListPosts(ctx context.Context, token, locationPath, pageToken string) (*PostsPage, error) {
	endpoint := fmt.Sprintf("%s/%s/localPosts", c.baseURL, locationPath)

	var page PostsPage
	if err := c.getPage(ctx, token, endpoint, pageToken, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListMedia fetches one page of media items for a location resource path.
func (c *Client) ListMedia(ctx context.Context, token, locationPath, pageToken string) (*MediaPage, error) {
	endpoint := fmt.Sprintf("%s/%s/media", c.baseURL, locationPath)

	var page MediaPage
	if err := c.getPage(ctx, token, endpoint, pageToken, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// getPage performs one authenticated list request and decodes the page into out.
func (c *Client) getPage(ctx context.Context, token, endpoint, pageToken string, out any) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrInvalidToken
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode >= 500:
		return &ServerError{StatusCode: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &FetchError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
