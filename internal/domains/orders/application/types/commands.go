package types

import "github.com/Apurer/go-gin-marketplace/internal/domains/orders/domain"

// PlaceOrderInput requests a new order for a listing on behalf of the buyer.
type PlaceOrderInput struct {
	Caller    domain.Caller
	ListingID string
	// IdempotencyKey is optional; retries with the same key replay the original order.
	IdempotencyKey string
}

// TransitionStatusInput requests a lifecycle change on an existing order.
type TransitionStatusInput struct {
	OrderID string
	Caller  domain.Caller
	Status  string
	Notes   *string
}

// OrderIdentifier addresses a single order as seen by a caller.
type OrderIdentifier struct {
	OrderID string
	Caller  domain.Caller
}

// Roles accepted by ListOrdersInput.Role.
const (
	RoleAny    = ""
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

// ListOrdersInput filters the caller's orders.
type ListOrdersInput struct {
	Caller domain.Caller
	Role   string
	Status string
	// All lets administrators list every order instead of only their own.
	All bool
}
