package ports

import (
	"context"

	"github.com/cropsure/cropsure-api/internal/core/domain"
)

// UserRepository persists credentials.
type UserRepository interface {
	// Create inserts the user and returns its new id. A taken email yields
	// domain.ErrDuplicateEmail and leaves the store unchanged.
	Create(ctx context.Context, email, passwordHash string) (int64, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}
