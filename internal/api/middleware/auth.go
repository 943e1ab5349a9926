package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cropsure/cropsure-api/internal/core/domain"
)

// SessionCookieName carries the session token for browser clients.
const SessionCookieName = "cropsure_session"

const (
	userIDKey       = "user_id"
	sessionErrorKey = "session_error"
)

// SessionResolver maps a session token to the user it belongs to.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (int64, error)
}

// Authenticate resolves the request's session token, if any, and stores the
// user id in the echo context. It never rejects a request: a store failure is
// kept on the context so RequireAuth can report it instead of a 401.
func Authenticate(resolver SessionResolver, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := TokenFromRequest(c)
			if token == "" {
				return next(c)
			}

			userID, err := resolver.Resolve(c.Request().Context(), token)
			switch {
			case err == nil:
				SetUserID(c, userID)
			case !errors.Is(err, domain.ErrUnauthorized):
				log.Warn().Err(err).Str("path", c.Path()).Msg("session lookup failed")
				c.Set(sessionErrorKey, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err))
			}
			return next(c)
		}
	}
}

// RequireAuth rejects requests that Authenticate did not attach a user to.
// When the session could not be looked up, the store error is returned.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := UserID(c); !ok {
				if err, ok := c.Get(sessionErrorKey).(error); ok {
					return err
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}
			return next(c)
		}
	}
}

// UserID returns the authenticated user id set by Authenticate.
func UserID(c echo.Context) (int64, bool) {
	id, ok := c.Get(userIDKey).(int64)
	return id, ok && id > 0
}

// SetUserID attaches an authenticated identity to the request.
func SetUserID(c echo.Context, id int64) {
	c.Set(userIDKey, id)
}

// TokenFromRequest reads the session cookie, falling back to a bearer token.
func TokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
