package main

import (
	"context"
	"database/sql"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/cropsure/cropsure-api/internal/api/handler"
	"github.com/cropsure/cropsure-api/internal/core/ports"
	"github.com/cropsure/cropsure-api/internal/infrastructure/config"
	"github.com/cropsure/cropsure-api/internal/infrastructure/db/mongo"
	"github.com/cropsure/cropsure-api/internal/infrastructure/db/redis"
	"github.com/cropsure/cropsure-api/internal/infrastructure/db/sqlite"
)

// stores holds the repositories selected by STORE_DRIVER and SESSION_BACKEND
// together with the handles they were built from.
type stores struct {
	users    ports.UserRepository
	history  ports.HistoryRepository
	sessions ports.SessionStore
	checks   []handler.HealthCheck

	sqlDB       *sql.DB
	mongoClient *mongodriver.Client
	redisClient *goredis.Client
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	s := &stores{}
	if err := s.open(ctx, cfg, log); err != nil {
		s.close(context.Background(), log)
		return nil, err
	}
	return s, nil
}

func (s *stores) open(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	var err error

	needSQLite := cfg.Store.Driver == config.DriverSQLite || cfg.Session.Backend == config.DriverSQLite
	needMongo := cfg.Store.Driver == config.DriverMongo || cfg.Session.Backend == config.DriverMongo

	if needSQLite {
		s.sqlDB, err = sqlite.Open(ctx, sqlite.Config{Path: cfg.Store.SQLitePath}, log.With().Str("component", "sqlite").Logger())
		if err != nil {
			return err
		}
		s.checks = append(s.checks, handler.HealthCheck{Name: "sqlite", Ping: s.sqlDB.PingContext})
		log.Info().Str("path", cfg.Store.SQLitePath).Msg("sqlite store ready")
	}

	var mdb *mongodriver.Database
	if needMongo {
		s.mongoClient, mdb, err = mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		if err = mongo.EnsureIndexes(ctx, mdb); err != nil {
			return err
		}
		client := s.mongoClient
		s.checks = append(s.checks, handler.HealthCheck{Name: "mongo", Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		}})
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo store ready")
	}

	switch cfg.Store.Driver {
	case config.DriverMongo:
		s.users = mongo.NewUserRepository(mdb)
		s.history = mongo.NewHistoryRepository(mdb)
	default:
		s.users = sqlite.NewUserRepository(s.sqlDB)
		s.history = sqlite.NewHistoryRepository(s.sqlDB)
	}

	switch cfg.Session.Backend {
	case config.BackendRedis:
		s.redisClient, err = redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		store := redis.NewSessionStore(s.redisClient)
		s.sessions = store
		s.checks = append(s.checks, handler.HealthCheck{Name: "redis", Ping: store.Ping})
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis session backend ready")
	case config.DriverMongo:
		s.sessions = mongo.NewSessionStore(mdb)
	default:
		s.sessions = sqlite.NewSessionStore(s.sqlDB)
	}

	return nil
}

func (s *stores) close(ctx context.Context, log zerolog.Logger) {
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close")
		}
	}
	if s.mongoClient != nil {
		if err := s.mongoClient.Disconnect(ctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}
	if s.sqlDB != nil {
		if err := s.sqlDB.Close(); err != nil {
			log.Warn().Err(err).Msg("sqlite close")
		}
	}
}
