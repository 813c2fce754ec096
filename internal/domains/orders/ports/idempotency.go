package ports

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyConflict indicates the same key was used with a different payload or order.
var ErrIdempotencyConflict = errors.New("idempotency conflict")

// DefaultIdempotencyRetention is how long a placement key keeps replaying its order.
const DefaultIdempotencyRetention = 24 * time.Hour

// IdempotencyRecord associates a client-supplied key with the order it produced.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	OrderID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IdempotencyStore persists idempotency keys so order placement retries can be replayed safely.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown or past retention.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Save persists the record. An existing record with the same hash and order is returned as-is;
	// a mismatching one is returned together with ErrIdempotencyConflict. Expired records are replaced.
	Save(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, error)
}
