// Command api serves the CropSure HTTP API.
//
// @title                       CropSure API
// @version                     1.0
// @description                 Crop disease analysis with per-user history.
// @BasePath                    /
// @securityDefinitions.apikey  SessionCookie
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/cropsure/cropsure-api/internal/api"
	"github.com/cropsure/cropsure-api/internal/api/handler"
	"github.com/cropsure/cropsure-api/internal/core/ports"
	"github.com/cropsure/cropsure-api/internal/core/service"
	"github.com/cropsure/cropsure-api/internal/infrastructure/config"
	"github.com/cropsure/cropsure-api/internal/infrastructure/gemini"
	"github.com/cropsure/cropsure-api/internal/infrastructure/janitor"
	"github.com/cropsure/cropsure-api/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "cropsure-api",
	})

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer st.close(context.Background(), log)

	secret, err := sessionSecret(cfg, log)
	if err != nil {
		return err
	}

	sessions := service.NewSessionManager(st.sessions, secret, cfg.Session.TTL, logger.Component("sessions"))
	history := service.NewHistoryService(st.history, logger.Component("history"))

	var analyzer ports.Analyzer
	if cfg.AnalysisEnabled() {
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			BaseURL: cfg.Gemini.BaseURL,
		}, logger.Component("gemini"))
		if err != nil {
			return err
		}
		analyzer = client
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, /api/analyze is disabled")
	}

	jan, err := janitor.New(cfg.Session.CleanupSchedule, sessions, logger.Component("janitor"))
	if err != nil {
		return err
	}
	jan.Start()

	e := api.NewRouter(api.Deps{
		Auth:     service.NewAuthService(st.users, logger.Component("auth")),
		Sessions: sessions,
		History:  history,
		Analysis: service.NewAnalysisService(analyzer, history, logger.Component("analysis")),
		Health:   st.checks,
		Cookie: handler.CookieConfig{
			Secure: cfg.Session.CookieSecure,
			TTL:    cfg.Session.TTL,
		},
		AuthRateLimit: cfg.AuthRateLimit,
		Logger:        log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	jan.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// sessionSecret returns the configured signing key, or a random one outside
// production. Tokens signed with a random key do not survive a restart.
func sessionSecret(cfg *config.Config, log zerolog.Logger) (string, error) {
	if cfg.Session.Secret != "" {
		return cfg.Session.Secret, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	log.Warn().Msg("SESSION_SECRET not set, using a random key for this process")
	return hex.EncodeToString(buf), nil
}
