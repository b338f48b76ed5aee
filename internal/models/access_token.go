package models

import "time"

// AccessToken is the server-side record of an issued bearer token. The
// bearer string itself is never stored; its jti claim points at ID.
type AccessToken struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	Name      string     `gorm:"size:191" json:"name"`
	Revoked   bool       `gorm:"index;not null;default:false" json:"revoked"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Usable reports whether the token may still authenticate a request at now.
func (t *AccessToken) Usable(now time.Time) bool {
	if t.Revoked {
		return false
	}
	return t.ExpiresAt == nil || t.ExpiresAt.After(now)
}
