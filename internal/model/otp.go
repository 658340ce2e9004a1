package model

import (
	"time"
)

// OneTimePassword is a short-lived password-reset code. One slot per
// email: issuing a new code replaces any outstanding rows for that
// address, so only the latest code verifies.
type OneTimePassword struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	Email    string    `json:"email" gorm:"type:varchar(100);index;not null"`
	Code     string    `json:"-" gorm:"type:varchar(12);not null"`
	IssuedAt time.Time `json:"issuedAt" gorm:"not null"`
}

// Expired reports whether the code is older than ttl at the given time.
func (o *OneTimePassword) Expired(now time.Time, ttl time.Duration) bool {
	return now.After(o.IssuedAt.Add(ttl))
}
