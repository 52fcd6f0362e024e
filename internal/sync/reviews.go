package sync

import (
	"context"
	"log"

	"github.com/vkarpenko/placesync/internal/entities"
)

// Reviews fetches and normalizes reviews for every location. A failure on
// any page is logged and that location contributes no reviews at all; the
// loop continues so a single broken listing never sinks the run.
func (f *Fetcher) Reviews(ctx context.Context, token string, locations []entities.Location, accountID string, userID uint) ([]entities.Review, error) {
	var records []entities.Review

	for _, loc := range locations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := ResourcePath(accountID, loc.ExternalID)
		var pageToken string
		var locRecords []entities.Review
		skipped := false

		for {
			page, err := f.client.ListReviews(ctx, token, path, pageToken)
			if err != nil {
				log.Printf("Listing sync: skipping reviews for location %s: %v", loc.ExternalID, err)
				skipped = true
				break
			}

			for _, rev := range page.Reviews {
				record := entities.Review{
					ExternalID:         rev.Name,
					AccountID:          accountID,
					UserID:             userID,
					LocationExternalID: loc.ExternalID,
					StarRating:         StarRating(rev.StarRating),
					Comment:            rev.Comment,
					Status:             entities.ReviewStatusPending,
					PostedAt:           parseProviderTime(rev.CreateTime),
					EditedAt:           parseProviderTime(rev.UpdateTime),
				}
				if record.ExternalID == "" {
					record.ExternalID = path + "/reviews/" + rev.ReviewID
				}
				if rev.Reviewer != nil {
					record.ReviewerName = rev.Reviewer.DisplayName
					record.ReviewerPhoto = rev.Reviewer.ProfilePhotoURL
				}
				if rev.Reply != nil {
					record.Status = entities.ReviewStatusResponded
					record.ReplyText = rev.Reply.Comment
					if t := parseProviderTime(rev.Reply.UpdateTime); !t.IsZero() {
						record.RepliedAt = &t
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
