package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps placement keys in order_idempotency_keys.
// Rows older than the retention window are ignored and overwritten on reuse.
type IdempotencyStore struct {
	db        *gorm.DB
	retention time.Duration
	now       func() time.Time
}

func NewIdempotencyStore(db *gorm.DB) *IdempotencyStore {
	if db != nil {
		_ = db.AutoMigrate(&idempotencyRow{})
	}
	return &IdempotencyStore{db: db, retention: ports.DefaultIdempotencyRetention, now: time.Now}
}

// WithRetention returns a copy of the store using d as the retention window.
func (s *IdempotencyStore) WithRetention(d time.Duration) *IdempotencyStore {
	clone := *s
	if d > 0 {
		clone.retention = d
	}
	return &clone
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	if s == nil || s.db == nil {
		return nil, errNoDB
	}
	var row idempotencyRow
	err := s.db.WithContext(ctx).
		Where("key = ? AND created_at > ?", key, s.cutoff()).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.record(), nil
}

func (s *IdempotencyStore) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	if s == nil || s.db == nil {
		return nil, errNoDB
	}
	now := s.now().UTC()
	row := idempotencyRow{Key: record.Key, RequestHash: record.RequestHash, OrderID: record.OrderID, CreatedAt: now, UpdatedAt: now}
	err := s.db.WithContext(ctx).Create(&row).Error
	if err == nil {
		return row.record(), nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, err
	}

	stored, getErr := s.Get(ctx, record.Key)
	if getErr != nil {
		return nil, getErr
	}
	if stored == nil {
		// The key exists but has expired: take it over.
		res := s.db.WithContext(ctx).Model(&idempotencyRow{}).
			Where("key = ? AND created_at <= ?", record.Key, s.cutoff()).
			Updates(map[string]any{"request_hash": row.RequestHash, "order_id": row.OrderID, "created_at": now, "updated_at": now})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ports.ErrIdempotencyConflict
		}
		return row.record(), nil
	}
	if stored.RequestHash != record.RequestHash || stored.OrderID != record.OrderID {
		return stored, ports.ErrIdempotencyConflict
	}
	return stored, nil
}

func (s *IdempotencyStore) cutoff() time.Time {
	return s.now().UTC().Add(-s.retention)
}

var errNoDB = errors.New("postgres idempotency store not configured")

type idempotencyRow struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128;not null"`
	OrderID     string    `gorm:"column:order_id;size:64;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (idempotencyRow) TableName() string { return "order_idempotency_keys" }

func (r idempotencyRow) record() *ports.IdempotencyRecord {
	return &ports.IdempotencyRecord{
		Key:         r.Key,
		RequestHash: r.RequestHash,
		OrderID:     r.OrderID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
