package models

import (
	"time"
)

// User model
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"-"`
	Name           string    `gorm:"size:100;not null" json:"name"`
	Email          string    `gorm:"size:100;not null;uniqueIndex" json:"email"`
	HashedPassword string    `gorm:"size:255;not null" json:"-"`
	Picture        *string   `gorm:"size:500" json:"picture"`
	GivenName      *string   `gorm:"size:100" json:"given_name"`
	FamilyName     *string   `gorm:"size:100" json:"family_name"`
	Locale         *string   `gorm:"size:10" json:"locale"`
	Currency       *string   `gorm:"size:10" json:"currency"`
}
