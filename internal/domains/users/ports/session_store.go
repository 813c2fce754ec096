package ports

import (
	"context"
	"time"
)

// Session records an issued token by its JWT ID so it can be revoked before expiry.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionStore abstracts session persistence.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Active(ctx context.Context, token string, now time.Time) (bool, error)
	DeleteByUser(ctx context.Context, userID string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
