package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cropsure/cropsure-api/internal/api/middleware"
	"github.com/cropsure/cropsure-api/internal/core/domain"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, email, password string) (*domain.User, error)
	verifyFn   func(ctx context.Context, email, password string) (*domain.User, error)
	getUserFn  func(ctx context.Context, id int64) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	return s.registerFn(ctx, email, password)
}

func (s *stubAuthService) Verify(ctx context.Context, email, password string) (*domain.User, error) {
	return s.verifyFn(ctx, email, password)
}

func (s *stubAuthService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.getUserFn(ctx, id)
}

type stubSessions struct {
	createErr error
	created   []int64
	destroyed []string
}

func (s *stubSessions) Create(_ context.Context, userID int64) (string, *domain.Session, error) {
	if s.createErr != nil {
		return "", nil, s.createErr
	}
	s.created = append(s.created, userID)
	now := time.Now()
	return "tok-" + strconv.FormatInt(userID, 10), &domain.Session{ID: "sid", UserID: userID, CreatedAt: now, ExpiresAt: now.Add(domain.SessionTTL)}, nil
}

func (s *stubSessions) Resolve(context.Context, string) (int64, error) {
	return 0, domain.ErrUnauthorized
}

func (s *stubSessions) Destroy(_ context.Context, token string) error {
	s.destroyed = append(s.destroyed, token)
	return nil
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newEcho()
	sessions := &stubSessions{}
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, email, password string) (*domain.User, error) {
			if email != "farmer@example.com" || password != "pw123" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &domain.User{ID: 1, Email: email, PasswordHash: "hash"}, nil
		},
	}
	h := NewAuthHandler(stub, sessions, CookieConfig{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", `{"email":"farmer@example.com","password":"pw123"}`), rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	user, ok := resp["user"].(map[string]any)
	if resp["success"] != true || !ok {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
	if user["id"] != float64(1) || user["email"] != "farmer@example.com" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["passwordHash"]; leaked || strings.Contains(rec.Body.String(), "hash") {
		t.Fatal("password hash leaked into response")
	}

	cookie := sessionCookie(t, rec)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected session cookie")
	}
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode || cookie.Path != "/" || cookie.MaxAge != 86400 {
		t.Fatalf("unexpected cookie attributes: %+v", cookie)
	}
	if len(sessions.created) != 1 || sessions.created[0] != 1 {
		t.Fatalf("expected session for user 1, got %v", sessions.created)
	}
}

func TestAuthHandler_Register_SecureCookie(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{registerFn: func(context.Context, string, string) (*domain.User, error) {
		return &domain.User{ID: 2, Email: "a@example.com"}, nil
	}}
	h := NewAuthHandler(stub, &stubSessions{}, CookieConfig{Secure: true, TTL: time.Hour}, zerolog.Nop())

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", `{"email":"a@example.com","password":"pw"}`), rec)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	cookie := sessionCookie(t, rec)
	if cookie == nil || !cookie.Secure || cookie.MaxAge != 3600 {
		t.Fatalf("unexpected cookie: %+v", cookie)
	}
}

func TestAuthHandler_Register_Failures(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		err      error
		sessErr  error
		wantCode int
		wantMsg  string
		wantErr  error
	}{
		{name: "duplicate", body: `{"email":"a@example.com","password":"pw"}`, err: domain.ErrDuplicateEmail, wantCode: http.StatusBadRequest, wantMsg: "Email already exists"},
		{name: "store failure", body: `{"email":"a@example.com","password":"pw"}`, err: errors.New("disk full"), wantCode: http.StatusInternalServerError, wantMsg: "Registration failed"},
		{name: "session failure", body: `{"email":"a@example.com","password":"pw"}`, sessErr: errors.New("redis down"), wantCode: http.StatusInternalServerError, wantMsg: "Registration failed"},
		{name: "missing password", body: `{"email":"a@example.com"}`, wantErr: domain.ErrInvalidPayload},
		{name: "malformed json", body: `{"email":`, wantErr: domain.ErrInvalidPayload},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEcho()
			stub := &stubAuthService{registerFn: func(ctx context.Context, email, password string) (*domain.User, error) {
				if tc.err != nil {
					return nil, tc.err
				}
				return &domain.User{ID: 1, Email: email}, nil
			}}
			h := NewAuthHandler(stub, &stubSessions{createErr: tc.sessErr}, CookieConfig{}, zerolog.Nop())

			rec := httptest.NewRecorder()
			c := e.NewContext(jsonRequest(http.MethodPost, "/api/auth/register", tc.body), rec)
			err := h.Register(c)

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tc.wantMsg) {
				t.Fatalf("expected message %q, got %s", tc.wantMsg, rec.Body.String())
			}
			if sessionCookie(t, rec) != nil {
				t.Fatal("no cookie expected on failure")
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	stub := &stubAuthService{verifyFn: func(ctx context.Context, email, password string) (*domain.User, error) {
		if password != "pw123" {
			return nil, domain.ErrInvalidCredentials
		}
		return &domain.User{ID: 1, Email: email}, nil
	}}

	t.Run("success", func(t *testing.T) {
		h := NewAuthHandler(stub, &stubSessions{}, CookieConfig{}, zerolog.Nop())
		rec := httptest.NewRecorder()
		c := newEcho().NewContext(jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"farmer@example.com","password":"pw123"}`), rec)

		if err := h.Login(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusOK || sessionCookie(t, rec) == nil {
			t.Fatalf("expected 200 with cookie, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"success":true`) {
			t.Fatalf("unexpected body %s", rec.Body.String())
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		h := NewAuthHandler(stub, &stubSessions{}, CookieConfig{}, zerolog.Nop())
		rec := httptest.NewRecorder()
		c := newEcho().NewContext(jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"farmer@example.com","password":"nope"}`), rec)

		if err := h.Login(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if strings.TrimSpace(rec.Body.String()) != `{"error":"Invalid credentials"}` {
			t.Fatalf("unexpected body %s", rec.Body.String())
		}
		if sessionCookie(t, rec) != nil {
			t.Fatal("no cookie expected on failure")
		}
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	sessions := &stubSessions{}
	h := NewAuthHandler(&stubAuthService{}, sessions, CookieConfig{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "tok-1"})
	rec := httptest.NewRecorder()
	c := newEcho().NewContext(req, rec)

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"success":true}` {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if len(sessions.destroyed) != 1 || sessions.destroyed[0] != "tok-1" {
		t.Fatalf("expected tok-1 destroyed, got %v", sessions.destroyed)
	}
	cookie := sessionCookie(t, rec)
	if cookie == nil || cookie.MaxAge >= 0 || cookie.Value != "" {
		t.Fatalf("expected cleared cookie, got %+v", cookie)
	}
}

func TestAuthHandler_LogoutAnonymous(t *testing.T) {
	sessions := &stubSessions{}
	h := NewAuthHandler(&stubAuthService{}, sessions, CookieConfig{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	c := newEcho().NewContext(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), rec)

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || len(sessions.destroyed) != 0 {
		t.Fatalf("expected plain success, got %d destroyed=%v", rec.Code, sessions.destroyed)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	stub := &stubAuthService{getUserFn: func(ctx context.Context, id int64) (*domain.User, error) {
		if id == 1 {
			return &domain.User{ID: 1, Email: "farmer@example.com"}, nil
		}
		return nil, domain.ErrUserNotFound
	}}
	h := NewAuthHandler(stub, &stubSessions{}, CookieConfig{}, zerolog.Nop())

	cases := map[string]struct {
		userID any
		want   string
	}{
		"anonymous":    {userID: nil, want: `{"user":null}`},
		"signed in":    {userID: int64(1), want: `{"user":{"id":1,"email":"farmer@example.com"}}`},
		"user deleted": {userID: int64(9), want: `{"user":null}`},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := newEcho().NewContext(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), rec)
			if tc.userID != nil {
				middleware.SetUserID(c, tc.userID.(int64))
			}

			if err := h.Me(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
