package entities

import (
	"time"
)

// User is a dashboard tenant. Authentication and sessions are handled
// upstream; the sync engine only needs the id for ownership checks and
// per-tenant scoping.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email string `gorm:"size:255;uniqueIndex" json:"email"`
	Name  string `gorm:"size:255" json:"name"`
}

func (User) TableName() string {
	return "users"
}
