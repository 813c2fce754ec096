package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	ordertypes "github.com/Apurer/go-gin-marketplace/internal/domains/orders/application/types"
	orderactivities "github.com/Apurer/go-gin-marketplace/internal/platform/temporal/activities/orders"
)

// RunOrderPlacementSequence persists the order and then notifies the seller.
// A failed notification does not fail the placement.
func RunOrderPlacementSequence(ctx workflow.Context, input ordertypes.PlaceOrderInput) (*ordertypes.OrderView, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order placement sequence started", "listingId", input.ListingID)
	persistOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	notifyOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Second,
			MaximumAttempts:    3,
		},
	}

	var view ordertypes.OrderView
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, persistOptions), orderactivities.PersistOrderActivityName, input).Get(ctx, &view)
	if err != nil {
		logger.Error("order placement sequence failed", "listingId", input.ListingID, "error", err)
		return nil, err
	}
	if view.Order == nil {
		return &view, nil
	}
	logger.Info("order placement sequence persisted", "orderId", view.Order.ID)

	notifyInput := orderactivities.NotifyOrderPlacedInput{
		OrderID:   view.Order.ID,
		ListingID: view.Order.ListingID,
		BuyerID:   view.Order.BuyerID,
		SellerID:  view.Order.SellerID,
		Amount:    view.Order.Amount.StringFixed(2),
	}
	if err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, notifyOptions), orderactivities.NotifyOrderPlacedActivityName, notifyInput).Get(ctx, nil); err != nil {
		logger.Warn("order placement notification dropped", "orderId", view.Order.ID, "error", err)
	}
	return &view, nil
}
