package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is the base interface for order domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// OrderPlaced is raised when a buyer places a new order.
type OrderPlaced struct {
	BaseEvent
	OrderID   string
	ListingID string
	BuyerID   string
	SellerID  string
	Amount    decimal.Decimal
}

// EventName returns the event type identifier.
func (e OrderPlaced) EventName() string {
	return "orders.order.placed"
}

// StatusChanged is raised after a successful status transition.
type StatusChanged struct {
	BaseEvent
	OrderID  string
	From     Status
	To       Status
	ActorID  string
	BuyerID  string
	SellerID string
}

// EventName returns the event type identifier.
func (e StatusChanged) EventName() string {
	return "orders.order.status_changed"
}
