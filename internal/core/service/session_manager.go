package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cropsure/cropsure-api/internal/core/domain"
	"github.com/cropsure/cropsure-api/internal/core/ports"
)

// SessionManager issues HS256-signed tokens whose jti points at a stored
// session. The signature keeps forged ids away from the store; the stored
// record makes tokens revocable.
type SessionManager struct {
	store  ports.SessionStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

func NewSessionManager(store ports.SessionStore, secret string, ttl time.Duration, log zerolog.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = domain.SessionTTL
	}
	return &SessionManager{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		log:    log,
	}
}

// WithClock replaces the time source. Used by tests to move past expiry.
func (m *SessionManager) WithClock(now func() time.Time) *SessionManager {
	m.now = now
	return m
}

// TTL is the lifetime given to new sessions.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

func (m *SessionManager) Create(ctx context.Context, userID int64) (string, *domain.Session, error) {
	now := m.now().UTC()
	sess := domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.store.Save(ctx, sess); err != nil {
		return "", nil, fmt.Errorf("save session: %w", err)
	}

	claims := jwt.RegisteredClaims{
		ID:        sess.ID,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}

	return token, &sess, nil
}

func (m *SessionManager) Resolve(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, domain.ErrUnauthorized
	}

	claims, err := m.parse(token, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return 0, domain.ErrUnauthorized
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, domain.ErrUnauthorized
	}

	sess, err := m.store.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return 0, domain.ErrUnauthorized
		}
		return 0, fmt.Errorf("resolve session: %w", err)
	}
	if sess.UserID != userID || sess.Expired(m.now()) {
		return 0, domain.ErrUnauthorized
	}

	return sess.UserID, nil
}

// Destroy revokes the session behind token. Tokens that fail to parse or
// point at nothing are ignored.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := m.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil
	}

	if err := m.store.Delete(ctx, claims.ID); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	m.log.Debug().Str("session_id", claims.ID).Msg("session destroyed")
	return nil
}

func (m *SessionManager) parse(token string, opts ...jwt.ParserOption) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	tkn, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil || !tkn.Valid {
		return nil, domain.ErrUnauthorized
	}
	if claims.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

// CleanupExpired drops sessions the store still holds past their expiry.
func (m *SessionManager) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := m.store.DeleteExpired(ctx, m.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", err)
	}
	return n, nil
}
