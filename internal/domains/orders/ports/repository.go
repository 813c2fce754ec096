package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/domain"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrConflict is returned by Update when the stored version moved on.
	ErrConflict = errors.New("order was modified concurrently")
	ErrExists   = errors.New("order already exists")
)

// ListFilter narrows Repository.List. Empty fields match everything.
type ListFilter struct {
	BuyerID  string
	SellerID string
	// ParticipantID matches orders where the user is either buyer or seller.
	ParticipantID string
	Status        domain.Status
}

// Repository persists orders.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// Update writes the order only if the stored version still equals order.Version.
	// The returned order carries the incremented version.
	Update(ctx context.Context, order *domain.Order) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Order, error)
	Delete(ctx context.Context, id string) error
}
