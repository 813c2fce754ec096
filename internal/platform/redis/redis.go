package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Connect builds a Redis client and verifies connectivity.
func Connect(ctx context.Context, addr string) (*goredis.Client, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// ConnectOptional dials Redis when an address is configured.
// Callers treat a nil client as "caching disabled".
func ConnectOptional(ctx context.Context, addr string, logger *slog.Logger) (*goredis.Client, func()) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(addr) == "" {
		logger.Info("REDIS_ADDR not set, order cache disabled")
		return nil, func() {}
	}
	client, err := Connect(ctx, addr)
	if err != nil {
		logger.Warn("failed to connect to redis, order cache disabled", slog.String("error", err.Error()))
		return nil, func() {}
	}
	logger.Info("redis connection established", slog.String("redis.addr", addr))
	return client, func() { _ = client.Close() }
}
