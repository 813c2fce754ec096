package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
)

const (
	keyPrefix  = "order:"
	DefaultTTL = 5 * time.Minute

	fieldPayload = "payload"
)

// setIfNewer stores the snapshot unless the hash already holds a higher version.
// KEYS[1] order key; ARGV[1] version; ARGV[2] payload; ARGV[3] ttl in milliseconds.
var setIfNewer = goredis.NewScript(`
local current = redis.call("HGET", KEYS[1], "version")
if current and tonumber(current) > tonumber(ARGV[1]) then
  return 0
end
redis.call("HSET", KEYS[1], "version", ARGV[1], "payload", ARGV[2])
redis.call("PEXPIRE", KEYS[1], ARGV[3])
return 1
`)

// Cache keeps JSON snapshots of orders in Redis hashes with a fixed TTL.
// Each hash carries the order version next to the snapshot so writes only move forward.
type Cache struct {
	client goredis.Cmdable
	ttl    time.Duration
}

func NewCache(client goredis.Cmdable, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

type cachedOrder struct {
	ID           string          `json:"id"`
	ListingID    string          `json:"listingId"`
	BuyerID      string          `json:"buyerId"`
	SellerID     string          `json:"sellerId"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	Notes        string          `json:"notes,omitempty"`
	DeliveryDate time.Time       `json:"deliveryDate"`
	CompletedAt  *time.Time      `json:"completedAt,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Version      int64           `json:"version"`
}

func key(id string) string { return keyPrefix + id }

func (c *Cache) Get(ctx context.Context, id string) (*domain.Order, error) {
	raw, err := c.client.HGet(ctx, key(id), fieldPayload).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", key(id), err)
	}
	var cached cachedOrder
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, fmt.Errorf("decode cached order: %w", err)
	}
	return &domain.Order{
		ID:           cached.ID,
		ListingID:    cached.ListingID,
		BuyerID:      cached.BuyerID,
		SellerID:     cached.SellerID,
		Amount:       cached.Amount,
		Status:       domain.Status(cached.Status),
		Notes:        cached.Notes,
		DeliveryDate: cached.DeliveryDate,
		CompletedAt:  cached.CompletedAt,
		CreatedAt:    cached.CreatedAt,
		UpdatedAt:    cached.UpdatedAt,
		Version:      cached.Version,
	}, nil
}

func (c *Cache) Set(ctx context.Context, order *domain.Order) error {
	if order == nil {
		return nil
	}
	payload, err := json.Marshal(cachedOrder{
		ID:           order.ID,
		ListingID:    order.ListingID,
		BuyerID:      order.BuyerID,
		SellerID:     order.SellerID,
		Amount:       order.Amount,
		Status:       string(order.Status),
		Notes:        order.Notes,
		DeliveryDate: order.DeliveryDate,
		CompletedAt:  order.CompletedAt,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
		Version:      order.Version,
	})
	if err != nil {
		return err
	}
	err = setIfNewer.Run(ctx, c.client, []string{key(order.ID)}, order.Version, payload, c.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key(order.ID), err)
	}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, key(id)).Err()
}

var _ ports.OrderCache = (*Cache)(nil)
