package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cropsure/cropsure-api/internal/api/metrics"
	"github.com/cropsure/cropsure-api/internal/api/middleware"
	"github.com/cropsure/cropsure-api/internal/core/domain"
	"github.com/cropsure/cropsure-api/internal/core/ports"
)

// CookieConfig controls the session cookie attributes.
type CookieConfig struct {
	Secure bool
	TTL    time.Duration
}

type AuthHandler struct {
	auth     ports.AuthService
	sessions ports.SessionManager
	cookie   CookieConfig
	log      zerolog.Logger
}

func NewAuthHandler(auth ports.AuthService, sessions ports.SessionManager, cookie CookieConfig, log zerolog.Logger) *AuthHandler {
	if cookie.TTL <= 0 {
		cookie.TTL = domain.SessionTTL
	}
	return &AuthHandler{auth: auth, sessions: sessions, cookie: cookie, log: log}
}

// Register creates an account and signs the caller in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Email and password"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorBody
// @Failure      500   {object}  errorBody
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsRequest
	if err := bindJSON(c, &req); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "invalid").Inc()
		return err
	}
	if err := c.Validate(&req); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "invalid").Inc()
		return err
	}

	ctx := c.Request().Context()
	user, err := h.auth.Register(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateEmail):
			metrics.AuthAttemptsTotal.WithLabelValues("register", "duplicate").Inc()
			return c.JSON(http.StatusBadRequest, errorBody{Error: "Email already exists"})
		case errors.Is(err, domain.ErrInvalidPayload):
			metrics.AuthAttemptsTotal.WithLabelValues("register", "invalid").Inc()
			return err
		}
		metrics.AuthAttemptsTotal.WithLabelValues("register", "error").Inc()
		h.log.Error().Err(err).Msg("registration failed")
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "Registration failed"})
	}

	if err := h.startSession(c, user.ID); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "error").Inc()
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("session after registration failed")
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "Registration failed"})
	}

	metrics.AuthAttemptsTotal.WithLabelValues("register", "success").Inc()
	return c.JSON(http.StatusOK, authResponse{Success: true, User: toUserResponse(user)})
}

// Login verifies credentials and starts a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Email and password"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := bindJSON(c, &req); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid").Inc()
		return err
	}

	user, err := h.auth.Verify(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid").Inc()
			return c.JSON(http.StatusUnauthorized, errorBody{Error: "Invalid credentials"})
		}
		metrics.AuthAttemptsTotal.WithLabelValues("login", "error").Inc()
		return err
	}

	if err := h.startSession(c, user.ID); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "error").Inc()
		return err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()
	return c.JSON(http.StatusOK, authResponse{Success: true, User: toUserResponse(user)})
}

// Logout destroys the current session, if any, and clears the cookie.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  successResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if token := middleware.TokenFromRequest(c); token != "" {
		if err := h.sessions.Destroy(c.Request().Context(), token); err != nil {
			h.log.Warn().Err(err).Msg("session destroy failed")
		}
	}

	h.clearCookie(c)
	metrics.AuthAttemptsTotal.WithLabelValues("logout", "success").Inc()
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

// Me reports the signed-in user, or null for anonymous callers.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  meResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusOK, meResponse{})
	}

	user, err := h.auth.GetUser(c.Request().Context(), id)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			h.log.Warn().Err(err).Int64("user_id", id).Msg("current user lookup failed")
		}
		return c.JSON(http.StatusOK, meResponse{})
	}
	return c.JSON(http.StatusOK, meResponse{User: toUserResponse(user)})
}

func (h *AuthHandler) startSession(c echo.Context, userID int64) error {
	token, _, err := h.sessions.Create(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	c.SetCookie(h.newCookie(token, int(h.cookie.TTL.Seconds())))
	return nil
}

func (h *AuthHandler) clearCookie(c echo.Context) {
	cookie := h.newCookie("", -1)
	cookie.Expires = time.Unix(0, 0)
	c.SetCookie(cookie)
}

func (h *AuthHandler) newCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func toUserResponse(u *domain.User) *userResponse {
	return &userResponse{ID: u.ID, Email: u.Email}
}
