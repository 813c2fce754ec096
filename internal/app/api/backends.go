package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	listingmemory "github.com/Apurer/go-gin-marketplace/internal/domains/listings/adapters/memory"
	listingpostgres "github.com/Apurer/go-gin-marketplace/internal/domains/listings/adapters/persistence/postgres"
	listingports "github.com/Apurer/go-gin-marketplace/internal/domains/listings/ports"
	ordercache "github.com/Apurer/go-gin-marketplace/internal/domains/orders/adapters/cache/redis"
	ordermemory "github.com/Apurer/go-gin-marketplace/internal/domains/orders/adapters/memory"
	ordernotify "github.com/Apurer/go-gin-marketplace/internal/domains/orders/adapters/notify"
	ordermongo "github.com/Apurer/go-gin-marketplace/internal/domains/orders/adapters/persistence/mongo"
	orderpostgres "github.com/Apurer/go-gin-marketplace/internal/domains/orders/adapters/persistence/postgres"
	orderports "github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
	usermemory "github.com/Apurer/go-gin-marketplace/internal/domains/users/adapters/memory"
	userpostgres "github.com/Apurer/go-gin-marketplace/internal/domains/users/adapters/persistence/postgres"
	userports "github.com/Apurer/go-gin-marketplace/internal/domains/users/ports"
	"github.com/Apurer/go-gin-marketplace/internal/platform/migrations"
	platformmongo "github.com/Apurer/go-gin-marketplace/internal/platform/mongo"
	platformpostgres "github.com/Apurer/go-gin-marketplace/internal/platform/postgres"
	platformredis "github.com/Apurer/go-gin-marketplace/internal/platform/redis"
)

// Backends holds the storage and messaging adapters selected by Config.
type Backends struct {
	Users       userports.Repository
	Sessions    userports.SessionStore
	Listings    listingports.Repository
	Orders      orderports.Repository
	Idempotency orderports.IdempotencyStore
	Cache       orderports.OrderCache
	Notifier    orderports.Notifier

	cleanups []func()
}

// Close releases connections in reverse order of acquisition.
func (b *Backends) Close() {
	for i := len(b.cleanups) - 1; i >= 0; i-- {
		b.cleanups[i]()
	}
	b.cleanups = nil
}

func (b *Backends) onClose(fn func()) {
	b.cleanups = append(b.cleanups, fn)
}

// BuildBackends connects the configured stores. Postgres and Redis are optional and
// fall back to memory or no caching; an explicitly requested Mongo store or message broker must be reachable.
func BuildBackends(ctx context.Context, cfg Config, logger *slog.Logger) (*Backends, error) {
	b := &Backends{
		Users:       usermemory.NewRepository(),
		Sessions:    usermemory.NewSessionStore(),
		Listings:    listingmemory.NewRepository(),
		Orders:      ordermemory.NewRepository(),
		Idempotency: ordermemory.NewIdempotencyStore(ordermemory.WithRetention(cfg.IdempotencyRetention)),
		Cache:       orderports.NoopCache,
	}

	db, closeDB := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger,
		platformpostgres.WithMaxOpenConns(cfg.PostgresMaxConns))
	b.onClose(closeDB)
	if db != nil {
		if err := migrations.Run(db); err != nil {
			b.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		b.Users = userpostgres.NewRepository(db)
		b.Sessions = userpostgres.NewSessionStore(db)
		b.Listings = listingpostgres.NewRepository(db)
		b.Idempotency = orderpostgres.NewIdempotencyStore(db).WithRetention(cfg.IdempotencyRetention)
		logger.Info("users, sessions and listings configured with postgres")
	}

	switch cfg.OrderStore {
	case StorePostgres:
		if db == nil {
			logger.Warn("ORDER_STORE=postgres but postgres is unavailable, keeping in-memory orders")
			break
		}
		b.Orders = orderpostgres.NewRepository(db)
		logger.Info("order repository configured with postgres")
	case StoreMongo:
		database, disconnect, err := platformmongo.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.onClose(func() { _ = disconnect(context.Background()) })
		repo, err := ordermongo.NewRepository(ctx, database)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("prepare mongo order repository: %w", err)
		}
		b.Orders = repo
		logger.Info("order repository configured with mongo", slog.String("mongo.database", database.Name()))
	}

	redisClient, closeRedis := platformredis.ConnectOptional(ctx, cfg.RedisAddr, logger)
	b.onClose(closeRedis)
	if redisClient != nil {
		b.Cache = ordercache.NewCache(redisClient, cfg.OrderCacheTTL)
	}

	notifier, err := buildNotifier(cfg, logger, b)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.Notifier = notifier
	return b, nil
}

func buildNotifier(cfg Config, logger *slog.Logger, b *Backends) (orderports.Notifier, error) {
	switch cfg.NotifyTransport {
	case NotifyKafka:
		kafka := ordernotify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		b.onClose(func() {
			if err := kafka.Close(); err != nil {
				logger.Warn("failed to close kafka writer", slog.String("error", err.Error()))
			}
		})
		logger.Info("notifications published to kafka", slog.String("kafka.topic", cfg.KafkaTopic))
		return kafka, nil
	case NotifyNATS:
		conn, err := ordernotify.ConnectNATS(cfg.NATSURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		b.onClose(func() { _ = conn.Drain() })
		logger.Info("notifications published to nats")
		return ordernotify.NewNATSNotifier(conn, logger), nil
	case NotifyLog, "":
		return ordernotify.NewLogNotifier(logger), nil
	default:
		return nil, errors.New("unknown notification transport " + cfg.NotifyTransport)
	}
}
