package models

import "time"

// RefreshToken is one server-side session record. The raw token is a
// signed JWT handed to the client; only its hash is stored here.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash []byte
	IPAddress string
	UserAgent string
	Device    *string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

func (t RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
