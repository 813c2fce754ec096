package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-marketplace/internal/domains/listings/domain"
	"github.com/Apurer/go-gin-marketplace/internal/shared/identity"
)

type CreateListingInput struct {
	Caller       identity.Identity
	Title        string
	Description  string
	Category     string
	Price        decimal.Decimal
	DeliveryDays int
	Cover        string
	Images       []string
}

// Service exposes listing use cases to adapters.
type Service interface {
	Create(ctx context.Context, input CreateListingInput) (*domain.Listing, error)
	GetByID(ctx context.Context, id string) (*domain.Listing, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Listing, error)
	Delete(ctx context.Context, caller identity.Identity, id string) error
}
