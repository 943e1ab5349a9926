package domain

import (
	"errors"
	"time"
)

// SessionTTL is the fixed absolute lifetime of a session.
const SessionTTL = 24 * time.Hour

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUnauthorized    = errors.New("unauthorized")
)

// Session binds an opaque session id to exactly one user until ExpiresAt.
type Session struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
