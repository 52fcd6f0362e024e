package entities

import (
	"time"
)

// ReviewStatus tells whether the business has replied to a review.
type ReviewStatus string

const (
	ReviewStatusResponded ReviewStatus = "responded"
	ReviewStatusPending   ReviewStatus = "pending"
)

// Review is a normalized customer review for one location.
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ExternalID string `gorm:"size:512;not null;uniqueIndex:idx_review_external" json:"external_id"`
	AccountID  string `gorm:"size:255;not null;uniqueIndex:idx_review_external;index" json:"account_id"`
	UserID     uint   `gorm:"index" json:"user_id"`

	// LocationExternalID references the owning location's ExternalID.
	LocationExternalID string `gorm:"size:512;index" json:"location_external_id"`

	ReviewerName  string `gorm:"size:255" json:"reviewer_name"`
	ReviewerPhoto string `gorm:"size:1024" json:"reviewer_photo"`

	// StarRating is 0-5; 0 means the provider sent no usable rating.
	StarRating int    `json:"star_rating"`
	Comment    string `gorm:"type:text" json:"comment"`

	Status    ReviewStatus `gorm:"size:20" json:"status"`
	ReplyText string       `gorm:"type:text" json:"reply_text,omitempty"`
	RepliedAt *time.Time   `json:"replied_at,omitempty"`

	PostedAt  time.Time `json:"posted_at"`
	EditedAt  time.Time `json:"edited_at"`
}

func (Review) TableName() string {
	return "reviews"
}
