package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid order input")
	ErrInvalidRole  = errors.New("role must be buyer or seller")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, domain.ErrEmptyOrderID) ||
		errors.Is(err, domain.ErrEmptyListingID) ||
		errors.Is(err, domain.ErrEmptyParticipant) ||
		errors.Is(err, domain.ErrSelfPurchase) ||
		errors.Is(err, domain.ErrNegativeAmount) ||
		errors.Is(err, ErrInvalidRole) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
