package postgres

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_RejectsEmptyDSN(t *testing.T) {
	_, err := Connect(context.Background(), "  ")
	require.Error(t, err)
}

func TestConnectOptional_FallsBackWithoutDSN(t *testing.T) {
	db, cleanup := ConnectOptional(context.Background(), "", slog.New(slog.DiscardHandler))
	assert.Nil(t, db)
	require.NotNil(t, cleanup)
	cleanup()
}

func TestOptions_IgnoreInvalidValues(t *testing.T) {
	cfg := pool{maxOpen: DefaultMaxOpenConns, maxIdle: DefaultMaxIdleConns, maxLifetime: DefaultConnMaxLifetime}
	for _, opt := range []Option{WithMaxOpenConns(0), WithMaxIdleConns(-1), WithConnMaxLifetime(-time.Second)} {
		opt(&cfg)
	}
	assert.Equal(t, DefaultMaxOpenConns, cfg.maxOpen)
	assert.Equal(t, DefaultMaxIdleConns, cfg.maxIdle)
	assert.Equal(t, DefaultConnMaxLifetime, cfg.maxLifetime)

	WithMaxOpenConns(3)(&cfg)
	assert.Equal(t, 3, cfg.maxOpen)
}
