package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-marketplace/internal/domains/listings/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid listing input")
	ErrNotSeller    = errors.New("only sellers can publish listings")
	ErrNotOwner     = errors.New("listing belongs to another seller")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyListingID) ||
		errors.Is(err, domain.ErrEmptySeller) ||
		errors.Is(err, domain.ErrEmptyTitle) ||
		errors.Is(err, domain.ErrNegativePrice) ||
		errors.Is(err, domain.ErrDeliveryDays) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
