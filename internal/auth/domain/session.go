package domain

import "time"

// Session is a server-side login session. Only the HMAC digest of the raw
// cookie value is stored.
type Session struct {
	ID          string
	UserID      string
	TokenDigest string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Expired reports whether the session has passed its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
