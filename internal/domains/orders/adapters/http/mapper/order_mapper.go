package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	ordertypes "github.com/Apurer/go-gin-marketplace/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-marketplace/internal/shared/identity"
)

// PlaceOrder is the inbound payload for buying a listing.
type PlaceOrder struct {
	ListingID string `json:"listingId" binding:"required"`
}

// UpdateOrderStatus requests a lifecycle transition. Notes, when present, replace the stored notes.
type UpdateOrderStatus struct {
	Status string  `json:"status" binding:"required,order_status"`
	Notes  *string `json:"notes,omitempty" binding:"omitempty,max=2000"`
}

// ListOrdersQuery filters GET /orders.
type ListOrdersQuery struct {
	Role   string `form:"role" binding:"omitempty,oneof=buyer seller"`
	Status string `form:"status" binding:"omitempty,order_status"`
	All    bool   `form:"all"`
}

type Party struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Img      string `json:"img,omitempty"`
	Country  string `json:"country,omitempty"`
}

type ListingSummary struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Cover string `json:"cover,omitempty"`
}

// Order is the HTTP representation of an order with its references resolved.
type Order struct {
	ID            string          `json:"id"`
	Listing       ListingSummary  `json:"listing"`
	Buyer         Party           `json:"buyer"`
	Seller        Party           `json:"seller"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	Notes         string          `json:"notes,omitempty"`
	DeliveryDate  time.Time       `json:"deliveryDate"`
	CompletedDate *time.Time      `json:"completedDate,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Version       int64           `json:"version"`
}

// ToCaller narrows the authenticated identity to what the order rules look at.
func ToCaller(id identity.Identity) domain.Caller {
	return domain.Caller{ID: id.UserID, IsAdmin: id.IsAdmin}
}

func ToPlaceOrderInput(caller identity.Identity, model PlaceOrder, idempotencyKey string) ordertypes.PlaceOrderInput {
	return ordertypes.PlaceOrderInput{
		Caller:         ToCaller(caller),
		ListingID:      model.ListingID,
		IdempotencyKey: idempotencyKey,
	}
}

func ToTransitionInput(caller identity.Identity, orderID string, model UpdateOrderStatus) ordertypes.TransitionStatusInput {
	return ordertypes.TransitionStatusInput{
		OrderID: orderID,
		Caller:  ToCaller(caller),
		Status:  model.Status,
		Notes:   model.Notes,
	}
}

func ToListInput(caller identity.Identity, query ListOrdersQuery) ordertypes.ListOrdersInput {
	return ordertypes.ListOrdersInput{
		Caller: ToCaller(caller),
		Role:   query.Role,
		Status: query.Status,
		All:    query.All,
	}
}

func FromOrderView(view *ordertypes.OrderView) Order {
	if view == nil || view.Order == nil {
		return Order{}
	}
	order := view.Order
	return Order{
		ID: order.ID,
		Listing: ListingSummary{
			ID:    order.ListingID,
			Title: view.Listing.Title,
			Cover: view.Listing.Cover,
		},
		Buyer:         fromParty(order.BuyerID, view.Buyer),
		Seller:        fromParty(order.SellerID, view.Seller),
		Amount:        order.Amount,
		Status:        order.Status.String(),
		Notes:         order.Notes,
		DeliveryDate:  order.DeliveryDate,
		CompletedDate: order.CompletedAt,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
		Version:       order.Version,
	}
}

func FromOrderViews(views []*ordertypes.OrderView) []Order {
	result := make([]Order, 0, len(views))
	for _, view := range views {
		result = append(result, FromOrderView(view))
	}
	return result
}

func fromParty(id string, summary ordertypes.PartySummary) Party {
	return Party{ID: id, Username: summary.Username, Img: summary.Img, Country: summary.Country}
}
