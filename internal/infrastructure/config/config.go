package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sethvargo/go-envconfig"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
	BackendRedis = "redis"
)

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	LogPretty       bool          `env:"LOG_PRETTY,       default=false"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`
	AuthRateLimit   float64       `env:"AUTH_RATE_LIMIT,  default=0"`

	Session SessionConfig
	Store   StoreConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Gemini  GeminiConfig
}

type SessionConfig struct {
	Secret          string        `env:"SESSION_SECRET"`
	TTL             time.Duration `env:"SESSION_TTL,              default=24h"`
	CookieSecure    bool          `env:"COOKIE_SECURE,            default=false"`
	Backend         string        `env:"SESSION_BACKEND,          default=sqlite"`
	CleanupSchedule string        `env:"SESSION_CLEANUP_SCHEDULE, default=@every 1h"`
}

type StoreConfig struct {
	Driver     string `env:"STORE_DRIVER, default=sqlite"`
	SQLitePath string `env:"SQLITE_PATH,  default=cropsure.db"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=cropsure"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type GeminiConfig struct {
	APIKey  string `env:"GEMINI_API_KEY"`
	Model   string `env:"GEMINI_MODEL,    default=gemini-3-flash-preview"`
	BaseURL string `env:"GEMINI_BASE_URL, default=https://generativelanguage.googleapis.com"`
}

// Load reads an optional .env file, then the process environment.
func Load(ctx context.Context) (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith resolves configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Session.Backend = strings.ToLower(strings.TrimSpace(cfg.Session.Backend))
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown drivers and combinations that cannot start.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case DriverSQLite, DriverMongo:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q: want sqlite or mongo", c.Store.Driver))
	}

	switch c.Session.Backend {
	case DriverSQLite, DriverMongo, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("SESSION_BACKEND %q: want sqlite, redis or mongo", c.Session.Backend))
	}

	// sqlite sessions reference the users table, so they need the sqlite store
	if c.Session.Backend == DriverSQLite && c.Store.Driver == DriverMongo {
		errs = append(errs, errors.New("SESSION_BACKEND sqlite requires STORE_DRIVER sqlite"))
	}

	if c.Store.Driver == DriverSQLite && strings.TrimSpace(c.Store.SQLitePath) == "" {
		errs = append(errs, errors.New("SQLITE_PATH must not be empty"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if _, err := cron.ParseStandard(c.Session.CleanupSchedule); err != nil {
		errs = append(errs, fmt.Errorf("SESSION_CLEANUP_SCHEDULE %q: %w", c.Session.CleanupSchedule, err))
	}
	if c.AuthRateLimit < 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT must not be negative"))
	}
	if c.IsProduction() && c.Session.Secret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required in production"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// AnalysisEnabled reports whether POST /api/analyze can reach the model.
func (c *Config) AnalysisEnabled() bool {
	return c.Gemini.APIKey != ""
}
