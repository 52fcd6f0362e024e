package entities

import (
	"time"
)

// QuestionStatus tells whether a question has at least one answer.
type QuestionStatus string

const (
	QuestionStatusAnswered   QuestionStatus = "answered"
	QuestionStatusUnanswered QuestionStatus = "unanswered"
)

// Question is a normalized Q&A entry for one location.
type Question struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ExternalID string `gorm:"size:512;not null;uniqueIndex:idx_question_external" json:"external_id"`
	AccountID  string `gorm:"size:255;not null;uniqueIndex:idx_question_external;index" json:"account_id"`
	UserID     uint   `gorm:"index" json:"user_id"`

	LocationExternalID string `gorm:"size:512;index" json:"location_external_id"`

	AuthorName string `gorm:"size:255" json:"author_name"`
	Text       string `gorm:"type:text" json:"text"`

	Status        QuestionStatus `gorm:"size:20" json:"status"`
	TopAnswerText string         `gorm:"type:text" json:"top_answer_text,omitempty"`
	AnswerCount   int            `json:"answer_count"`

	AskedAt time.Time `json:"asked_at"`
}

func (Question) TableName() string {
	return "questions"
}
