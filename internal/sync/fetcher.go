package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/vkarpenko/placesync/internal/entities"
	"github.com/vkarpenko/placesync/internal/provider"
)

const closedPermanently = "CLOSED_PERMANENTLY"

// Fetcher pulls paginated resources from the provider and normalizes them
// into internal records. Locations are the root fetch and fatal on failure;
// the location-scoped fetches log and skip individual locations instead.
type Fetcher struct {
	client *provider.Client
}

// NewFetcher creates a fetcher over the given provider client.
func NewFetcher(client *provider.Client) *Fetcher {
	return &Fetcher{client: client}
}

var _ ResourceFetcher = (*Fetcher)(nil)

// Locations fetches and normalizes every location of an account, following
// continuation tokens until none remains. Any page failure aborts the whole
// sync since all later fetches are scoped to this list.
func (f *Fetcher) Locations(ctx context.Context, token, accountID string, userID uint) ([]entities.Location, error) {
	var records []entities.Location
	var pageToken string

	for {
		page, err := f.client.ListLocations(ctx, token, accountID, pageToken)
		if err != nil {
			return nil, fmt.Errorf("list locations for account %s: %w", accountID, err)
		}

		for _, loc := range page.Locations {
			records = append(records, normalizeLocation(loc, accountID, userID))
		}

		if page.NextPageToken == "" {
			return records, nil
		}
		pageToken = page.NextPageToken
	}
}

func normalizeLocation(loc provider.Location, accountID string, userID uint) entities.Location {
	record := entities.Location{
		ExternalID: loc.Name,
		AccountID:  accountID,
		UserID:     userID,
		SafeKey:    SafeKey(loc.Name),
		Title:      loc.Title,
		StoreCode:  loc.StoreCode,
		Address:    FormatAddress(loc.StorefrontAddress),
		WebsiteURL: loc.WebsiteURI,
		IsActive:   true,
	}

	if loc.PhoneNumbers != nil {
		record.Phone = loc.PhoneNumbers.PrimaryPhone
	}
	if loc.OpenInfo != nil && loc.OpenInfo.Status == closedPermanently {
		record.IsActive = false
	}

	// Aggregates live under metadata; older accounts deliver them under
	// profile instead.
	stats := loc.Metadata
	if stats == nil {
		stats = loc.Profile
	}
	if stats != nil {
		record.AverageRating = stats.AverageRating
		record.ReviewCount = stats.ReviewCount
		record.FollowerCount = stats.FollowerCount
	}

	return record
}

// parseProviderTime parses the provider's RFC3339 timestamps, returning the
// zero time for empty or malformed input.
func parseProviderTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
