// Package postgres opens the shared GORM handle used by every postgres adapter.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Pool limits applied to the underlying *sql.DB.
const (
	DefaultMaxOpenConns    = 20
	DefaultMaxIdleConns    = 5
	DefaultConnMaxLifetime = 30 * time.Minute
	pingTimeout            = 5 * time.Second
)

type pool struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
}

// Option adjusts the connection pool.
type Option func(*pool)

func WithMaxOpenConns(n int) Option {
	return func(p *pool) {
		if n > 0 {
			p.maxOpen = n
		}
	}
}

func WithMaxIdleConns(n int) Option {
	return func(p *pool) {
		if n >= 0 {
			p.maxIdle = n
		}
	}
}

func WithConnMaxLifetime(d time.Duration) Option {
	return func(p *pool) {
		if d > 0 {
			p.maxLifetime = d
		}
	}
}

// Connect opens dsn, sizes the pool and pings once. TranslateError is on so
// adapters can match gorm.ErrDuplicatedKey instead of driver codes.
func Connect(ctx context.Context, dsn string, opts ...Option) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres DSN is empty")
	}
	cfg := pool{maxOpen: DefaultMaxOpenConns, maxIdle: DefaultMaxIdleConns, maxLifetime: DefaultConnMaxLifetime}
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap postgres handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.maxOpen)
	sqlDB.SetMaxIdleConns(cfg.maxIdle)
	sqlDB.SetConnMaxLifetime(cfg.maxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// ConnectOptional returns nil and a no-op cleanup when dsn is empty or unreachable,
// letting callers fall back to in-memory adapters.
func ConnectOptional(ctx context.Context, dsn string, logger *slog.Logger, opts ...Option) (*gorm.DB, func()) {
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() {}
	if strings.TrimSpace(dsn) == "" {
		logger.Warn("POSTGRES_DSN not set, using in-memory storage")
		return nil, noop
	}
	db, err := Connect(ctx, dsn, opts...)
	if err != nil {
		logger.Warn("postgres unavailable, using in-memory storage", slog.String("error", err.Error()))
		return nil, noop
	}
	sqlDB, _ := db.DB()
	logger.Info("postgres connection established")
	return db, func() { _ = sqlDB.Close() }
}
