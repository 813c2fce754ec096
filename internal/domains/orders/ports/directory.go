package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/application/types"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrUserNotFound    = errors.New("user not found")
)

// Directory resolves the listing and user references of an order.
type Directory interface {
	Listing(ctx context.Context, id string) (types.ListingSummary, error)
	User(ctx context.Context, id string) (types.PartySummary, error)
}
