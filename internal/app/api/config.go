package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.temporal.io/sdk/client"

	ordernotify "github.com/Apurer/go-gin-marketplace/internal/domains/orders/adapters/notify"
	platformmongo "github.com/Apurer/go-gin-marketplace/internal/platform/mongo"
	platformpostgres "github.com/Apurer/go-gin-marketplace/internal/platform/postgres"
)

// Order store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// Notification transports.
const (
	NotifyLog   = "log"
	NotifyKafka = "kafka"
	NotifyNATS  = "nats"
)

// Config carries environment-driven settings shared by the API and worker processes.
type Config struct {
	Port        string
	PostgresDSN string
	// PostgresMaxConns caps the shared connection pool.
	PostgresMaxConns int
	MongoURI         string
	MongoDB          string
	// OrderStore selects the order repository; postgres also backs users, listings and sessions.
	OrderStore string

	RedisAddr     string
	OrderCacheTTL time.Duration
	// IdempotencyRetention bounds how long an Idempotency-Key replays its order.
	IdempotencyRetention time.Duration

	NotifyTransport   string
	KafkaBrokers      []string
	KafkaTopic        string
	NATSURL           string
	NotifyQueueSize   int
	NotifyWorkers     int
	NotifyTimeout     time.Duration
	ConflictRetries   int
	JWTSecret         string
	JWTTTL            time.Duration
	SecureCookies     bool
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	SessionPurgeEvery time.Duration
	RateLimitRPS      float64
	RateLimitBurst    int
	GzipLevel         int
	ShutdownTimeout   time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("POSTGRES_MAX_OPEN_CONNS", platformpostgres.DefaultMaxOpenConns)
	v.SetDefault("ORDER_STORE", "")
	v.SetDefault("MONGO_DATABASE", platformmongo.DefaultDatabase)
	v.SetDefault("ORDER_CACHE_TTL_SECONDS", 300)
	v.SetDefault("IDEMPOTENCY_RETENTION_HOURS", 24)
	v.SetDefault("NOTIFY_TRANSPORT", NotifyLog)
	v.SetDefault("KAFKA_NOTIFICATIONS_TOPIC", ordernotify.DefaultNotificationsTopic)
	v.SetDefault("NOTIFY_QUEUE_SIZE", ordernotify.DefaultQueueSize)
	v.SetDefault("NOTIFY_WORKERS", ordernotify.DefaultWorkers)
	v.SetDefault("NOTIFY_TIMEOUT_SECONDS", 5)
	v.SetDefault("ORDER_CONFLICT_RETRIES", 1)
	v.SetDefault("JWT_TTL_HOURS", 24)
	v.SetDefault("SECURE_COOKIES", true)
	v.SetDefault("TEMPORAL_ADDRESS", client.DefaultHostPort)
	v.SetDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace)
	v.SetDefault("TEMPORAL_DISABLED", false)
	v.SetDefault("SESSION_PURGE_INTERVAL_MINUTES", 0)
	v.SetDefault("RATE_LIMIT_RPS", 20.0)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("GZIP_LEVEL", -1)
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)
}

// LoadConfig reads an optional .env file and the environment, applies defaults, and validates.
func LoadConfig() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return configFrom(v)
}

func configFrom(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:              strings.TrimSpace(v.GetString("PORT")),
		PostgresDSN:       strings.TrimSpace(v.GetString("POSTGRES_DSN")),
		MongoURI:          strings.TrimSpace(v.GetString("MONGO_URI")),
		MongoDB:           strings.TrimSpace(v.GetString("MONGO_DATABASE")),
		OrderStore:        strings.ToLower(strings.TrimSpace(v.GetString("ORDER_STORE"))),
		RedisAddr:         strings.TrimSpace(v.GetString("REDIS_ADDR")),
		NotifyTransport:   strings.ToLower(strings.TrimSpace(v.GetString("NOTIFY_TRANSPORT"))),
		KafkaBrokers:      splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:        strings.TrimSpace(v.GetString("KAFKA_NOTIFICATIONS_TOPIC")),
		NATSURL:           strings.TrimSpace(v.GetString("NATS_URL")),
		JWTSecret:         v.GetString("JWT_SECRET"),
		SecureCookies:     v.GetBool("SECURE_COOKIES"),
		TemporalAddress:   strings.TrimSpace(v.GetString("TEMPORAL_ADDRESS")),
		TemporalNamespace: strings.TrimSpace(v.GetString("TEMPORAL_NAMESPACE")),
		TemporalDisabled:  v.GetBool("TEMPORAL_DISABLED"),
		RateLimitRPS:      v.GetFloat64("RATE_LIMIT_RPS"),
		GzipLevel:         v.GetInt("GZIP_LEVEL"),
	}

	var errs []error
	positive := func(key string) int {
		n := v.GetInt(key)
		if n <= 0 {
			errs = append(errs, fmt.Errorf("%s must be a positive integer", key))
		}
		return n
	}
	nonNegative := func(key string) int {
		n := v.GetInt(key)
		if n < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", key))
		}
		return n
	}
	cfg.PostgresMaxConns = positive("POSTGRES_MAX_OPEN_CONNS")
	cfg.OrderCacheTTL = time.Duration(positive("ORDER_CACHE_TTL_SECONDS")) * time.Second
	cfg.IdempotencyRetention = time.Duration(positive("IDEMPOTENCY_RETENTION_HOURS")) * time.Hour
	cfg.NotifyQueueSize = positive("NOTIFY_QUEUE_SIZE")
	cfg.NotifyWorkers = positive("NOTIFY_WORKERS")
	cfg.NotifyTimeout = time.Duration(positive("NOTIFY_TIMEOUT_SECONDS")) * time.Second
	cfg.ConflictRetries = nonNegative("ORDER_CONFLICT_RETRIES")
	cfg.JWTTTL = time.Duration(positive("JWT_TTL_HOURS")) * time.Hour
	cfg.SessionPurgeEvery = time.Duration(nonNegative("SESSION_PURGE_INTERVAL_MINUTES")) * time.Minute
	cfg.RateLimitBurst = positive("RATE_LIMIT_BURST")
	cfg.ShutdownTimeout = time.Duration(positive("SHUTDOWN_TIMEOUT_SECONDS")) * time.Second

	if cfg.RateLimitRPS <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must be positive"))
	}
	if cfg.GzipLevel < -2 || cfg.GzipLevel > 9 {
		errs = append(errs, errors.New("GZIP_LEVEL must be between -2 and 9"))
	}
	if cfg.OrderStore == "" {
		cfg.OrderStore = StoreMemory
		if cfg.PostgresDSN != "" {
			cfg.OrderStore = StorePostgres
		}
	}
	switch cfg.OrderStore {
	case StoreMemory, StorePostgres:
	case StoreMongo:
		if cfg.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when ORDER_STORE=mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("ORDER_STORE must be one of memory, postgres, mongo; got %q", cfg.OrderStore))
	}
	switch cfg.NotifyTransport {
	case NotifyLog:
	case NotifyKafka:
		if len(cfg.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when NOTIFY_TRANSPORT=kafka"))
		}
	case NotifyNATS:
		if cfg.NATSURL == "" {
			errs = append(errs, errors.New("NATS_URL is required when NOTIFY_TRANSPORT=nats"))
		}
	default:
		errs = append(errs, fmt.Errorf("NOTIFY_TRANSPORT must be one of log, kafka, nats; got %q", cfg.NotifyTransport))
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
