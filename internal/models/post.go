package models

import (
	"time"

	"gorm.io/gorm"
)

type Post struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:30;not null" json:"title"`
	Description string         `gorm:"size:255;not null" json:"description"`
	UserID      uint           `gorm:"index;not null" json:"user_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"user"`
}

// Deleted reports whether the post was soft deleted.
func (p *Post) Deleted() bool {
	return p.DeletedAt.Valid
}
