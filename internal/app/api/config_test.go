package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("ORDER_STORE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.OrderStore)
	assert.Equal(t, NotifyLog, cfg.NotifyTransport)
	assert.Equal(t, 5*time.Minute, cfg.OrderCacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 1, cfg.ConflictRetries)
	assert.Zero(t, cfg.SessionPurgeEvery)
	assert.True(t, cfg.SecureCookies)
}

func TestLoadConfig_PostgresDSNSelectsPostgresStore(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/market")
	t.Setenv("ORDER_STORE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.OrderStore)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ORDER_STORE", "Mongo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("NOTIFY_TRANSPORT", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SESSION_PURGE_INTERVAL_MINUTES", "15")
	t.Setenv("TEMPORAL_DISABLED", "true")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreMongo, cfg.OrderStore)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 15*time.Minute, cfg.SessionPurgeEvery)
	assert.True(t, cfg.TemporalDisabled)
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 0.0001)
}

func TestLoadConfig_ReportsEveryProblem(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ORDER_STORE", "cassandra")
	t.Setenv("NOTIFY_TRANSPORT", "nats")
	t.Setenv("NATS_URL", "")
	t.Setenv("JWT_TTL_HOURS", "0")

	_, err := LoadConfig()
	require.Error(t, err)
	for _, want := range []string{"ORDER_STORE", "NATS_URL", "JWT_SECRET", "JWT_TTL_HOURS"} {
		assert.Contains(t, err.Error(), want)
	}
}
