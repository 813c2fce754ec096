package ports

import (
	"context"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/application/types"
)

// Service exposes order use cases to adapters.
type Service interface {
	PlaceOrder(ctx context.Context, input types.PlaceOrderInput) (*types.OrderView, error)
	TransitionStatus(ctx context.Context, input types.TransitionStatusInput) (*types.OrderView, error)
	GetOrder(ctx context.Context, input types.OrderIdentifier) (*types.OrderView, error)
	ListOrders(ctx context.Context, input types.ListOrdersInput) ([]*types.OrderView, error)
	DeleteOrder(ctx context.Context, input types.OrderIdentifier) error
}
