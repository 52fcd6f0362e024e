package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkarpenko/placesync/internal/entities"
	"github.com/vkarpenko/placesync/internal/provider"
)

func TestFetcher_Locations_PaginatesAndNormalizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts/42/locations", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Query().Get("pageToken") == "" {
			w.Write([]byte(`{
				"locations": [{
					"name": "accounts/42/locations/1",
					"title": "Coffee Corner",
					"storefrontAddress": {
						"addressLines": ["12 Baker St"],
						"locality": "London",
						"postalCode": "NW1",
						"regionCode": "GB"
					},
					"metadata": {"averageRating": 4.5, "reviewCount": 120, "followerCount": 44},
					"openInfo": {"status": "OPEN"}
				}],
				"nextPageToken": "p2"
			}`))
			return
		}

		w.Write([]byte(`{
			"locations": [{
				"name": "accounts/42/locations/2",
				"title": "Closed Branch",
				"profile": {"averageRating": 3.1, "reviewCount": 7},
				"openInfo": {"status": "CLOSED_PERMANENTLY"}
			}]
		}`))
	}))
	defer server.Close()

	fetcher := NewFetcher(provider.NewClient(provider.WithBaseURL(server.URL)))
	locations, err := fetcher.Locations(context.Background(), "token", "42", 9)
	require.NoError(t, err)
	require.Len(t, locations, 2)

	first := locations[0]
	assert.Equal(t, "accounts/42/locations/1", first.ExternalID)
	assert.Equal(t, "accounts_42_locations_1", first.SafeKey)
	assert.Equal(t, "12 Baker St, London, NW1, GB", first.Address)
	assert.Equal(t, 4.5, first.AverageRating)
	assert.Equal(t, 120, first.ReviewCount)
	assert.Equal(t, 44, first.FollowerCount)
	assert.True(t, first.IsActive)
	assert.Equal(t, "42", first.AccountID)
	assert.Equal(t, uint(9), first.UserID)

	// Aggregates fall back to the profile object, and permanent closure
	// flips the active flag.
	second := locations[1]
	assert.Equal(t, 3.1, second.AverageRating)
	assert.Equal(t, 7, second.ReviewCount)
	assert.False(t, second.IsActive)
}

func TestFetcher_Locations_FailureAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := NewFetcher(provider.NewClient(provider.WithBaseURL(server.URL)))
	_, err := fetcher.Locations(context.Background(), "token", "42", 1)
	require.Error(t, err)

	var serverErr *provider.ServerError
	assert.ErrorAs(t, err, &serverErr)
}

func TestFetcher_Reviews_SkipsFailedLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The second location's review endpoint is broken.
		if strings.HasPrefix(r.URL.Path, "/accounts/42/locations/2/") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"reviews": [
				{"name": "` + strings.TrimPrefix(r.URL.Path, "/") + `/r1",
				 "starRating": "STAR_FIVE",
				 "comment": "great",
				 "reviewer": {"displayName": "Alice"},
				 "reviewReply": {"comment": "thanks!", "updateTime": "2024-03-01T10:00:00Z"}},
				{"name": "` + strings.TrimPrefix(r.URL.Path, "/") + `/r2",
				 "starRating": 2}
			]
		}`))
	}))
	defer server.Close()

	locations := locationsFixture("accounts/42/locations/1", "accounts/42/locations/2", "accounts/42/locations/3")

	fetcher := NewFetcher(provider.NewClient(provider.WithBaseURL(server.URL)))
	reviews, err := fetcher.Reviews(context.Background(), "token", locations, "42", 1)
	require.NoError(t, err)

	// 2 reviews from each of the 2 healthy locations; the broken one
	// contributes nothing.
	require.Len(t, reviews, 4)

	first := reviews[0]
	assert.Equal(t, 5, first.StarRating)
	assert.Equal(t, "Alice", first.ReviewerName)
	assert.Equal(t, "responded", string(first.Status))
	assert.Equal(t, "thanks!", first.ReplyText)
	require.NotNil(t, first.RepliedAt)

	assert.Equal(t, 2, reviews[1].StarRating)
	assert.Equal(t, "pending", string(reviews[1].Status))
}

func TestFetcher_Reviews_MidPaginationFailureDropsLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/accounts/42/locations/1/") {
			// First page succeeds, the second blows up mid-pagination.
			if r.URL.Query().Get("pageToken") == "" {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{
					"reviews": [{"name": "accounts/42/locations/1/reviews/r1", "starRating": "STAR_FOUR"}],
					"nextPageToken": "p2"
				}`))
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"reviews": [{"name": "` + strings.TrimPrefix(r.URL.Path, "/") + `/r1", "starRating": "STAR_THREE"}]
		}`))
	}))
	defer server.Close()

	locations := locationsFixture("accounts/42/locations/1", "accounts/42/locations/2")

	fetcher := NewFetcher(provider.NewClient(provider.WithBaseURL(server.URL)))
	reviews, err := fetcher.Reviews(context.Background(), "token", locations, "42", 1)
	require.NoError(t, err)

	// The partially fetched location contributes nothing, including the
	// reviews from its successful first page.
	require.Len(t, reviews, 1)
	assert.Equal(t, "accounts/42/locations/2/reviews/r1", reviews[0].ExternalID)
}

func TestFetcher_Media_MidPaginationFailureDropsLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageToken") != "" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"mediaItems": [{"name": "m1", "mediaFormat": "PHOTO", "sourceUrl": "https://img.example/1"}],
			"nextPageToken": "p2"
		}`))
	}))
	defer server.Close()

	fetcher := NewFetcher(provider.NewClient(provider.WithBaseURL(server.URL)))
	media, err := fetcher.Media(context.Background(), "token",
		locationsFixture("accounts/42/locations/1"), "42", 1)
	require.NoError(t, err)
	assert.Empty(t, media)
}

func TestFetcher_Reviews_ComposesBareLocationPath(t *testing.T) {
	var requestedPaths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPaths = append(requestedPaths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"reviews": []}`))
	}))
	defer server.Close()

	locations := locationsFixture("901", "accounts/7/locations/902")

	fetcher := NewFetcher(provider.NewClient(provider.WithBaseURL(server.URL)))
	_, err := fetcher.Reviews(context.Background(), "token", locations, "42", 1)
	require.NoError(t, err)

	require.Len(t, requestedPaths, 2)
	assert.Equal(t, "/accounts/42/locations/901/reviews", requestedPaths[0])
	// Already-qualified ids are used verbatim.
	assert.Equal(t, "/accounts/7/locations/902/reviews", requestedPaths[1])
}

func TestFetcher_Questions_TopAnswerShapes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"questions": [
				{"name": "q1", "text": "Do you deliver?",
				 "topAnswers": {"text": "Yes, city-wide."}, "totalAnswerCount": 1},
				{"name": "q2", "text": "Parking?",
				 "topAnswers": [{"text": "Behind the building."}, {"text": "Street only."}],
				 "totalAnswerCount": 2},
				{"name": "q3", "text": "Open on Sundays?"}
			]
		}`))
	}))
	defer server.Close()

	fetcher := NewFetcher(provider.NewClient(provider.WithBaseURL(server.URL)))
	questions, err := fetcher.Questions(context.Background(), "token",
		locationsFixture("accounts/42/locations/1"), "42", 1)
	require.NoError(t, err)
	require.Len(t, questions, 3)

	assert.Equal(t, "answered", string(questions[0].Status))
	assert.Equal(t, "Yes, city-wide.", questions[0].TopAnswerText)

	assert.Equal(t, "answered", string(questions[1].Status))
	assert.Equal(t, "Behind the building.", questions[1].TopAnswerText)

	assert.Equal(t, "unanswered", string(questions[2].Status))
	assert.Empty(t, questions[2].TopAnswerText)
}

func TestFetcher_Media_Normalizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(provider.MediaPage{
			MediaItems: []provider.MediaItem{
				{
					Name:                "m1",
					MediaFormat:         "PHOTO",
					GoogleURL:           "https://img.example/1",
					LocationAssociation: &provider.MediaCategory{Category: "INTERIOR"},
				},
			},
		})
	}))
	defer server.Close()

	fetcher := NewFetcher(provider.NewClient(provider.WithBaseURL(server.URL)))
	media, err := fetcher.Media(context.Background(), "token",
		locationsFixture("accounts/42/locations/1"), "42", 1)
	require.NoError(t, err)
	require.Len(t, media, 1)

	assert.Equal(t, "PHOTO", media[0].Format)
	assert.Equal(t, "https://img.example/1", media[0].SourceURL)
	assert.Equal(t, "INTERIOR", media[0].Category)
}

func locationsFixture(externalIDs ...string) []entities.Location {
	locations := make([]entities.Location, 0, len(externalIDs))
	for _, id := range externalIDs {
		locations = append(locations, entities.Location{ExternalID: id, AccountID: "42"})
	}
	return locations
}
