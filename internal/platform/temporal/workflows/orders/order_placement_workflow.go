package orders

import (
	"go.temporal.io/sdk/workflow"

	ordertypes "github.com/Apurer/go-gin-marketplace/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-marketplace/internal/platform/temporal/sequences"
)

const (
	// OrderPlacementWorkflowName is the public identifier for registering the workflow.
	OrderPlacementWorkflowName = "orders.workflows.Placement"
	// OrderPlacementTaskQueue is the queue consumed by the worker processing order workflows.
	OrderPlacementTaskQueue = "ORDER_PLACEMENT"
)

// OrderPlacementWorkflowInput captures the payload required to place an order.
type OrderPlacementWorkflowInput struct {
	Command ordertypes.PlaceOrderInput
	TraceID string
}

// OrderPlacementWorkflow orchestrates persisting a new order and notifying its seller.
func OrderPlacementWorkflow(ctx workflow.Context, input OrderPlacementWorkflowInput) (*ordertypes.OrderView, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("OrderPlacementWorkflow started", withTraceID(input.TraceID, "listingId", input.Command.ListingID)...)
	view, err := sequences.RunOrderPlacementSequence(ctx, input.Command)
	if err != nil {
		logger.Error("OrderPlacementWorkflow failed", withTraceID(input.TraceID, "listingId", input.Command.ListingID, "error", err)...)
		return nil, err
	}
	if view != nil && view.Order != nil {
		logger.Info("OrderPlacementWorkflow completed", withTraceID(input.TraceID, "orderId", view.Order.ID)...)
	}
	return view, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}

// RegisterOptions names the workflow for worker registration.
func RegisterOptions() workflow.RegisterOptions {
	return workflow.RegisterOptions{Name: OrderPlacementWorkflowName}
}
