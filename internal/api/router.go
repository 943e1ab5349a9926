package api

import (
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/cropsure/cropsure-api/internal/docs"

	"github.com/cropsure/cropsure-api/internal/api/handler"
	"github.com/cropsure/cropsure-api/internal/api/middleware"
	"github.com/cropsure/cropsure-api/internal/core/ports"
)

// bodyLimit leaves room for a base64-encoded phone photo.
const bodyLimit = "12M"

// Deps are the wired services the router exposes over HTTP.
type Deps struct {
	Auth     ports.AuthService
	Sessions ports.SessionManager
	History  ports.HistoryService
	Analysis handler.Analyzer
	Health   []handler.HealthCheck

	Cookie handler.CookieConfig
	// AuthRateLimit is requests per second per client IP on /api/auth; 0 disables it.
	AuthRateLimit float64
	Logger        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(middleware.Metrics())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit(bodyLimit))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Sessions, d.Cookie, d.Logger)
	historyHandler := handler.NewHistoryHandler(d.History)
	analysisHandler := handler.NewAnalysisHandler(d.Analysis)
	healthHandler := handler.NewHealthHandler(d.Health...)

	api := e.Group("/api", middleware.Authenticate(d.Sessions, d.Logger))
	requireAuth := middleware.RequireAuth()

	// --- Auth routes ---
	authMW := authLimiter(d.AuthRateLimit)
	api.POST("/auth/register", authHandler.Register, authMW...)
	api.POST("/auth/login", authHandler.Login, authMW...)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/me", authHandler.Me)

	// --- History routes ---
	api.GET("/history", historyHandler.List, requireAuth)
	api.POST("/history", historyHandler.Create, requireAuth)
	api.DELETE("/history/:id", historyHandler.Delete, requireAuth)

	// --- Analysis ---
	api.POST("/analyze", analysisHandler.Analyze, requireAuth)

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func authLimiter(perSecond float64) []echo.MiddlewareFunc {
	if perSecond <= 0 {
		return nil
	}

	burst := int(perSecond * 5)
	if burst < 1 {
		burst = 1
	}
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return []echo.MiddlewareFunc{echomiddleware.RateLimiter(store)}
}
