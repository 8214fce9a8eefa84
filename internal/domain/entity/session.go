package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SessionRefreshInterval is the trailing window before expiry in which a
	// validated session has its lifetime extended (sliding expiration).
	SessionRefreshInterval = 15 * 24 * time.Hour

	// SessionMaxDuration is the full lifetime granted to a session at creation
	// and on each sliding renewal.
	SessionMaxDuration = 2 * SessionRefreshInterval
)

// Session represents a single authenticated browser session.
// ID is the SHA-256 hash of the bearer token, hex encoded; the raw token is
// never persisted and only the cookie holder can re-derive the ID.
type Session struct {
	ID        string    // One-way hash of the bearer token, used as the storage key.
	UserID    uuid.UUID // Links this session to the User it belongs to.
	ExpiresAt time.Time // The exact time when this session becomes invalid.
	CreatedAt time.Time // Timestamp of when this session was created (i.e., when the user logged in).
}

// Expired reports whether the session is past its expiry at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// ShouldRefresh reports whether the session is inside the sliding-renewal
// window, i.e. the second half of its lifetime.
func (s *Session) ShouldRefresh(now time.Time) bool {
	return !now.Before(s.ExpiresAt.Add(-SessionRefreshInterval))
}
