package ports

import (
	"context"
	"time"
)

// NotificationKind names the event a user is being told about.
type NotificationKind string

const (
	NotificationOrderPlaced   NotificationKind = "order.placed"
	NotificationStatusChanged NotificationKind = "order.status_changed"
)

// Notification is addressed to a single user.
type Notification struct {
	ID        string
	UserID    string
	Kind      NotificationKind
	OrderID   string
	Payload   map[string]string
	CreatedAt time.Time
}

// Notifier delivers a notification over some transport.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// Dispatcher hands notifications off without blocking the caller.
// Delivery is best-effort: failures are logged and dropped.
type Dispatcher interface {
	Dispatch(notification Notification)
}

// NoopDispatcher discards every notification.
var NoopDispatcher Dispatcher = noopDispatcher{}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(Notification) {}
