package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/cropsure/cropsure-api/internal/core/domain"
	"github.com/cropsure/cropsure-api/internal/core/ports"
)

// dummyHash is compared against when the email is unknown so that a failed
// lookup costs the same bcrypt work as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("cropsure-timing-equalizer"), bcrypt.DefaultCost)

// maxPasswordBytes is the most bcrypt will hash.
const maxPasswordBytes = 72

// AuthService implements registration and credential verification.
type AuthService struct {
	repo ports.UserRepository
	cost int
	log  zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, cost: bcrypt.DefaultCost, log: log}
}

// normalizeEmail makes uniqueness and lookups case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidPayload
	}
	if len(password) > maxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidPayload, maxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
		}
		return nil, err
	}

	id, err := s.repo.Create(ctx, email, string(hash))
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", id).Msg("user registered")
	return &domain.User{ID: id, Email: email, PasswordHash: string(hash)}, nil
}

func (s *AuthService) Verify(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}
