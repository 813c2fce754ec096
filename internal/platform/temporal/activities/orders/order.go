package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	orderapp "github.com/Apurer/go-gin-marketplace/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-marketplace/internal/domains/orders/application/types"
	orderports "github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
)

const (
	// PersistOrderActivityName stores the order without notifying anyone.
	PersistOrderActivityName = "orders.activities.PersistOrder"
	// NotifyOrderPlacedActivityName tells the seller a new order arrived.
	NotifyOrderPlacedActivityName = "orders.activities.NotifyOrderPlaced"
)

// Application error types for placement failures that retrying cannot fix.
const (
	ErrTypeInvalidInput        = "orders.InvalidInput"
	ErrTypeListingNotFound     = "orders.ListingNotFound"
	ErrTypeIdempotencyConflict = "orders.IdempotencyConflict"
)

// NotifyOrderPlacedInput identifies the placed order and its recipient.
type NotifyOrderPlacedInput struct {
	OrderID   string
	ListingID string
	BuyerID   string
	SellerID  string
	Amount    string
}

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	persistService orderports.Service
	notifier       orderports.Notifier
}

// NewActivities wires the orders collaborators into the Temporal activities bundle.
// persistService should be constructed without a dispatcher so the seller is notified only once.
func NewActivities(persistService orderports.Service, notifier orderports.Notifier) *Activities {
	return &Activities{persistService: persistService, notifier: notifier}
}

// PersistOrder places the order. The idempotency key makes retried attempts replay the first result.
func (a *Activities) PersistOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*ordertypes.OrderView, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.persistService == nil {
		logger.Error("order persist activity not initialized", "listingId", input.ListingID)
		return nil, errors.New("order persist activity not initialized")
	}
	logger.Info("PersistOrder activity started", "listingId", input.ListingID, "buyerId", input.Caller.ID)
	view, err := a.persistService.PlaceOrder(ctx, input)
	if err != nil {
		logger.Error("PersistOrder activity failed", "listingId", input.ListingID, "error", err)
		return nil, classifyPersistError(err)
	}
	logger.Info("PersistOrder activity completed", "orderId", view.Order.ID)
	return view, nil
}

// NotifyOrderPlaced delivers the seller notification synchronously so Temporal can retry it.
func (a *Activities) NotifyOrderPlaced(ctx context.Context, input NotifyOrderPlacedInput) error {
	logger := activity.GetLogger(ctx)
	if a == nil {
		return errors.New("order notify activity not initialized")
	}
	if a.notifier == nil {
		logger.Info("notifier not configured; skipping", "orderId", input.OrderID)
		return nil
	}

	var hb notifyHeartbeat
	if activity.HasHeartbeatDetails(ctx) {
		_ = activity.GetHeartbeatDetails(ctx, &hb)
	}
	if hb.Completed {
		logger.Info("NotifyOrderPlaced already completed in prior attempt; skipping", "orderId", input.OrderID)
		return nil
	}

	notification := orderports.Notification{
		ID:      uuid.NewString(),
		UserID:  input.SellerID,
		Kind:    orderports.NotificationOrderPlaced,
		OrderID: input.OrderID,
		Payload: map[string]string{
			"listingId": input.ListingID,
			"buyerId":   input.BuyerID,
			"amount":    input.Amount,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := a.notifier.Notify(ctx, notification); err != nil {
		logger.Error("NotifyOrderPlaced failed", "orderId", input.OrderID, "error", err)
		return err
	}
	activity.RecordHeartbeat(ctx, notifyHeartbeat{Completed: true})
	logger.Info("NotifyOrderPlaced activity completed", "orderId", input.OrderID)
	return nil
}

type notifyHeartbeat struct {
	Completed bool
}

func classifyPersistError(err error) error {
	switch {
	case errors.Is(err, orderapp.ErrInvalidInput):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
	case errors.Is(err, orderports.ErrListingNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeListingNotFound, err)
	case errors.Is(err, orderports.ErrIdempotencyConflict):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeIdempotencyConflict, err)
	default:
		return err
	}
}
