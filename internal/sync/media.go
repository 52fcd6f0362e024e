package sync

import (
	"context"
	"log"

	"github.com/vkarpenko/placesync/internal/entities"
)

// Media fetches and normalizes photos and videos for every location,
// skipping a location entirely when any page of its fetch fails.
func (f *Fetcher) Media(ctx context.Context, token string, locations []entities.Location, accountID string, userID uint) ([]entities.Media, error) {
	var records []entities.Media

	for _, loc := range locations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := ResourcePath(accountID, loc.ExternalID)
		var pageToken string
		var locRecords []entities.Media
		skipped := false

		for {
			page, err := f.client.ListMedia(ctx, token, path, pageToken)
			if err != nil {
				log.Printf("Listing sync: skipping media for location %s: %v", loc.ExternalID, err)
				skipped = true
				break
			}

			for _, m := range page.MediaItems {
				record := entities.Media{
					ExternalID:         m.Name,
					AccountID:          accountID,
					UserID:             userID,
					LocationExternalID: loc.ExternalID,
					Format:             m.MediaFormat,
					SourceURL:          m.SourceURL,
					ThumbnailURL:       m.ThumbnailURL,
					UploadedAt:         parseProviderTime(m.CreateTime),
				}
				if record.SourceURL == "" {
					record.SourceURL = m.GoogleURL
				}
				if m.LocationAssociation != nil {
					record.Category = m.LocationAssociation.Category
				}
				locRecords = append(locRecords, record)
			}

			if page.NextPageToken == "" {
				break
			}
			pageToken = page.NextPageToken
		}

		if skipped {
			continue
		}
		records = append(records, locRecords...)
	}

	return records, nil
}
