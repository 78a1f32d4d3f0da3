package models

import "time"

// Session binds an opaque bearer token to a subscriber until ExpiresAt.
type Session struct {
	Token        string    `json:"-"`
	SubscriberID string    `json:"subscriber_id"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidAt reports whether the session is still usable at now.
// A session whose expiry equals now is already expired.
func (s *Session) ValidAt(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
