package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps placement keys in a map until their retention lapses.
type IdempotencyStore struct {
	mu        sync.Mutex
	byKey     map[string]ports.IdempotencyRecord
	retention time.Duration
	now       func() time.Time
}

type IdempotencyOption func(*IdempotencyStore)

// WithRetention overrides ports.DefaultIdempotencyRetention.
func WithRetention(d time.Duration) IdempotencyOption {
	return func(s *IdempotencyStore) {
		if d > 0 {
			s.retention = d
		}
	}
}

func WithIdempotencyClock(now func() time.Time) IdempotencyOption {
	return func(s *IdempotencyStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewIdempotencyStore(opts ...IdempotencyOption) *IdempotencyStore {
	s := &IdempotencyStore{
		byKey:     map[string]ports.IdempotencyRecord{},
		retention: ports.DefaultIdempotencyRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.live(key)
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (s *IdempotencyStore) Save(_ context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.live(record.Key); ok {
		if stored.RequestHash == record.RequestHash && stored.OrderID == record.OrderID {
			return &stored, nil
		}
		return &stored, ports.ErrIdempotencyConflict
	}
	record.CreatedAt = s.now()
	record.UpdatedAt = record.CreatedAt
	s.byKey[record.Key] = record
	return &record, nil
}

// live returns the record for key, evicting it when it has outlived the retention window.
func (s *IdempotencyStore) live(key string) (ports.IdempotencyRecord, bool) {
	record, ok := s.byKey[key]
	if !ok {
		return ports.IdempotencyRecord{}, false
	}
	if s.now().Sub(record.CreatedAt) >= s.retention {
		delete(s.byKey, key)
		return ports.IdempotencyRecord{}, false
	}
	return record, true
}
