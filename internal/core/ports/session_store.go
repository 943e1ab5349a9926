package ports

import (
	"context"
	"time"

	"github.com/cropsure/cropsure-api/internal/core/domain"
)

// SessionStore holds server-side session state keyed by session id.
type SessionStore interface {
	Save(ctx context.Context, sess domain.Session) error
	// Get returns domain.ErrSessionNotFound for unknown ids.
	Get(ctx context.Context, id string) (*domain.Session, error)
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
	// DeleteExpired drops sessions that expired before now and reports how many.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionManager issues, resolves and revokes session tokens.
type SessionManager interface {
	Create(ctx context.Context, userID int64) (token string, sess *domain.Session, err error)
	// Resolve returns domain.ErrUnauthorized for any token that is not a live session.
	Resolve(ctx context.Context, token string) (int64, error)
	Destroy(ctx context.Context, token string) error
}
