package ports

import (
	"context"

	"github.com/cropsure/cropsure-api/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Verify(ctx context.Context, email, password string) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}
