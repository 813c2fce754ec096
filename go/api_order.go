package marketserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	orderhttpmapper "github.com/Apurer/go-gin-marketplace/internal/domains/orders/adapters/http/mapper"
	ordertypes "github.com/Apurer/go-gin-marketplace/internal/domains/orders/application/types"
	orderports "github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
	apierrors "github.com/Apurer/go-gin-marketplace/internal/shared/errors"
)

// IdempotencyKeyHeader lets clients retry order placement safely.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 255

// OrderAPI wires HTTP transport with the orders service and placement workflows.
type OrderAPI struct {
	service   orderports.Service
	workflows orderports.WorkflowOrchestrator
}

// NewOrderAPI creates an OrderAPI. A nil orchestrator places orders through the service directly.
func NewOrderAPI(service orderports.Service, workflows orderports.WorkflowOrchestrator) OrderAPI {
	return OrderAPI{service: service, workflows: workflows}
}

// Post /api/orders
// Places an order for a listing
func (api *OrderAPI) PlaceOrder(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var payload orderhttpmapper.PlaceOrder
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLength {
		apierrors.Respond(c, apierrors.ErrBadRequest.WithDetail("Idempotency-Key is too long"))
		return
	}
	view, err := api.placeOrder(c.Request.Context(), orderhttpmapper.ToPlaceOrderInput(caller, payload, key))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderhttpmapper.FromOrderView(view))
}

func (api *OrderAPI) placeOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*ordertypes.OrderView, error) {
	if api.workflows != nil {
		return api.workflows.PlaceOrder(ctx, input)
	}
	return api.service.PlaceOrder(ctx, input)
}

// Get /api/orders
// Lists the caller's orders
func (api *OrderAPI) ListOrders(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var query orderhttpmapper.ListOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindingError(c, err)
		return
	}
	views, err := api.service.ListOrders(c.Request.Context(), orderhttpmapper.ToListInput(caller, query))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromOrderViews(views))
}

// Get /api/orders/:orderId
// Finds an order visible to the caller
func (api *OrderAPI) GetOrder(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := pathParam(c, "orderId")
	if !ok {
		return
	}
	view, err := api.service.GetOrder(c.Request.Context(), ordertypes.OrderIdentifier{OrderID: id, Caller: orderhttpmapper.ToCaller(caller)})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromOrderView(view))
}

// Patch /api/orders/:orderId/status
// Moves an order along its lifecycle
func (api *OrderAPI) UpdateOrderStatus(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := pathParam(c, "orderId")
	if !ok {
		return
	}
	var payload orderhttpmapper.UpdateOrderStatus
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	view, err := api.service.TransitionStatus(c.Request.Context(), orderhttpmapper.ToTransitionInput(caller, id, payload))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromOrderView(view))
}

// Delete /api/orders/:orderId
// Removes an order; administrators only
func (api *OrderAPI) DeleteOrder(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := pathParam(c, "orderId")
	if !ok {
		return
	}
	if err := api.service.DeleteOrder(c.Request.Context(), ordertypes.OrderIdentifier{OrderID: id, Caller: orderhttpmapper.ToCaller(caller)}); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
