package ports

import (
	"context"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/application/types"
)

// WorkflowOrchestrator runs order placement, durably when a workflow engine is available.
type WorkflowOrchestrator interface {
	PlaceOrder(ctx context.Context, input types.PlaceOrderInput) (*types.OrderView, error)
}
