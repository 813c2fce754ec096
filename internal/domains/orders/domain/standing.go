package domain

import "errors"

// ErrUnauthorized is returned when the caller has no standing on the order.
var ErrUnauthorized = errors.New("caller is not a participant in this order")

// Caller is the already-authenticated identity acting on an order.
type Caller struct {
	ID      string
	IsAdmin bool
}

// Standing is the set of relations a caller holds to a specific order.
type Standing struct {
	Buyer  bool
	Seller bool
	Admin  bool
}

// StandingOf derives the caller's relations to the order.
func StandingOf(order *Order, caller Caller) Standing {
	standing := Standing{Admin: caller.IsAdmin}
	if order == nil || caller.ID == "" {
		return standing
	}
	standing.Buyer = caller.ID == order.BuyerID
	standing.Seller = caller.ID == order.SellerID
	return standing
}

// Participant is true when the caller is the buyer or the seller.
func (s Standing) Participant() bool {
	return s.Buyer || s.Seller
}

// Any is true when the caller holds at least one relation.
func (s Standing) Any() bool {
	return s.Buyer || s.Seller || s.Admin
}

// Authorize fails with ErrUnauthorized when the caller holds no standing.
func Authorize(standing Standing) error {
	if !standing.Any() {
		return ErrUnauthorized
	}
	return nil
}

// Decide checks a requested transition without touching any state.
// Authorization is evaluated before legality.
func Decide(current Status, standing Standing, target Status) error {
	if err := Authorize(standing); err != nil {
		return err
	}
	if !target.IsValid() {
		return ErrInvalidStatus
	}
	if !CanTransition(current, target) {
		return &InvalidTransitionError{From: current, To: target}
	}
	return nil
}
