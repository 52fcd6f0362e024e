package sync

import (
	"context"
	"log"

	"github.com/vkarpenko/placesync/internal/entities"
	"github.com/vkarpenko/placesync/internal/provider"
)

// Questions fetches and normalizes Q&A entries for every location,
// skipping a location entirely when any page of its fetch fails.
func (f *Fetcher) Questions(ctx context.Context, token string, locations []entities.Location, accountID string, userID uint) ([]entities.Question, error) {
	var records []entities.Question

	for _, loc := range locations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := ResourcePath(accountID, loc.ExternalID)
		var pageToken string
		var locRecords []entities.Question
		skipped := false

		for {
			page, err := f.client.ListQuestions(ctx, token, path, pageToken)
			if err != nil {
				log.Printf("Listing sync: skipping questions for location %s: %v", loc.ExternalID, err)
				skipped = true
				break
			}

			for _, q := range page.Questions {
				record := entities.Question{
					ExternalID:         q.Name,
					AccountID:          accountID,
					UserID:             userID,
					LocationExternalID: loc.ExternalID,
					Text:               q.Text,
					Status:             entities.QuestionStatusUnanswered,
					AnswerCount:        q.TotalAnswerCount,
					AskedAt:            parseProviderTime(q.CreateTime),
				}
				if q.Author != nil {
					record.AuthorName = q.Author.DisplayName
				}
				if answers := oneOrMany[provider.Answer](q.TopAnswers); len(answers) > 0 {
					record.Status = entities.QuestionStatusAnswered
					record.TopAnswerText = answers[0].Text
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
