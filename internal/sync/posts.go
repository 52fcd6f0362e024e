package sync

import (
	"context"
	"log"

	"github.com/vkarpenko/placesync/internal/entities"
)

// postAttachment is the shape of one entry in a post's media field.
type postAttachment struct {
	SourceURL string `json:"sourceUrl"`
	GoogleURL string `json:"googleUrl"`
}

// Posts fetches and normalizes local posts for every location, skipping
// locations whose fetch fails.
func (f *Fetcher) Posts(ctx context.Context, token string, locations []entities.Location, accountID string, userID uint) ([]entities.Post, error) {
	var records []entities.Post

	for _, loc := range locations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := ResourcePath(accountID, loc.ExternalID)
		var pageToken string
		var locRecords []entities.Post
		skipped := false

		for {
			page, err := f.client.ListPosts(ctx, token, path, pageToken)
			if err != nil {
				log.Printf("Listing sync: skipping posts for location %s: %v", loc.ExternalID, err)
				skipped = true
				break
			}

			for _, p := range page.LocalPosts {
				record := entities.Post{
					ExternalID:         p.Name,
					AccountID:          accountID,
					UserID:             userID,
					LocationExternalID: loc.ExternalID,
					Summary:            p.Summary,
					TopicType:          p.TopicType,
					State:              p.State,
					PublishedAt:        parseProviderTime(p.CreateTime),
				}
				if p.CallToAction != nil {
					record.CallToActionURL = p.CallToAction.URL
				}
				if attachments := oneOrMany[postAttachment](p.Media); len(attachments) > 0 {
					record.MediaURL = attachments[0].SourceURL
					if record.MediaURL == "" {
						record.MediaURL = attachments[0].GoogleURL
					}
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
