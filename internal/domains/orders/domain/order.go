package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDeliveryDays applies when the purchased listing does not set a delivery time.
const DefaultDeliveryDays = 7

var (
	ErrEmptyOrderID     = errors.New("order id is required")
	ErrEmptyListingID   = errors.New("listing id is required")
	ErrEmptyParticipant = errors.New("buyer and seller are required")
	ErrSelfPurchase     = errors.New("buyer cannot purchase their own listing")
	ErrNegativeAmount   = errors.New("amount must not be negative")
)

// Order models a buyer purchasing a listing from a seller.
type Order struct {
	ID           string
	ListingID    string
	BuyerID      string
	SellerID     string
	Amount       decimal.Decimal
	Status       Status
	Notes        string
	DeliveryDate time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	// Version increases on every persisted write and guards concurrent updates.
	Version int64
}

// NewOrder validates and constructs a pending order.
func NewOrder(id, listingID, buyerID, sellerID string, amount decimal.Decimal, deliveryDays int, now time.Time) (*Order, error) {
	if deliveryDays <= 0 {
		deliveryDays = DefaultDeliveryDays
	}
	order := &Order{
		ID:           strings.TrimSpace(id),
		ListingID:    strings.TrimSpace(listingID),
		BuyerID:      strings.TrimSpace(buyerID),
		SellerID:     strings.TrimSpace(sellerID),
		Amount:       amount,
		Status:       StatusPending,
		DeliveryDate: now.AddDate(0, 0, deliveryDays),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// Validate enforces invariants on the aggregate.
func (o *Order) Validate() error {
	if o.ID == "" {
		return ErrEmptyOrderID
	}
	if o.ListingID == "" {
		return ErrEmptyListingID
	}
	if o.BuyerID == "" || o.SellerID == "" {
		return ErrEmptyParticipant
	}
	if o.BuyerID == o.SellerID {
		return ErrSelfPurchase
	}
	if o.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if !o.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// Transition applies a status change on behalf of a caller with the given standing.
// Notes, when supplied, replace the stored notes. UpdatedAt is set to now on every
// applied transition, CompletedAt only when the target is completed.
// On error the order is left untouched.
func (o *Order) Transition(standing Standing, actorID string, target Status, notes *string, now time.Time) (StatusChanged, error) {
	if err := Decide(o.Status, standing, target); err != nil {
		return StatusChanged{}, err
	}
	from := o.Status
	o.Status = target
	if notes != nil {
		o.Notes = *notes
	}
	if target == StatusCompleted {
		completed := now
		o.CompletedAt = &completed
	}
	o.UpdatedAt = now
	return StatusChanged{
		BaseEvent: BaseEvent{Timestamp: now},
		OrderID:   o.ID,
		From:      from,
		To:        target,
		ActorID:   actorID,
		BuyerID:   o.BuyerID,
		SellerID:  o.SellerID,
	}, nil
}

// Counterparties returns the participants other than actorID.
func (o *Order) Counterparties(actorID string) []string {
	parties := make([]string, 0, 2)
	for _, id := range []string{o.BuyerID, o.SellerID} {
		if id != "" && id != actorID {
			parties = append(parties, id)
		}
	}
	return parties
}

// Clone returns a deep copy safe to hand across adapter boundaries.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	if o.CompletedAt != nil {
		completed := *o.CompletedAt
		clone.CompletedAt = &completed
	}
	return &clone
}
