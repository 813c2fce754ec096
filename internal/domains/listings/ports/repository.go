package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-marketplace/internal/domains/listings/domain"
)

var ErrNotFound = errors.New("listing not found")

type ListFilter struct {
	SellerID string
	Category string
}

type Repository interface {
	Create(ctx context.Context, listing *domain.Listing) (*domain.Listing, error)
	GetByID(ctx context.Context, id string) (*domain.Listing, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Listing, error)
	Delete(ctx context.Context, id string) error
}
