package models

import (
	"time"
)

type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Name            string     `gorm:"size:255;not null" json:"name"`
	Email           string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password        string     `gorm:"size:255;not null" json:"-"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	RememberToken   *string    `gorm:"size:100" json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Verified reports whether the user confirmed their email address.
func (u *User) Verified() bool {
	return u.EmailVerifiedAt != nil
}
