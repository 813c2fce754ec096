package directory

import (
	"context"
	"errors"

	listingdomain "github.com/Apurer/go-gin-marketplace/internal/domains/listings/domain"
	listingports "github.com/Apurer/go-gin-marketplace/internal/domains/listings/ports"
	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
	userdomain "github.com/Apurer/go-gin-marketplace/internal/domains/users/domain"
	userports "github.com/Apurer/go-gin-marketplace/internal/domains/users/ports"
)

type listingReader interface {
	GetByID(ctx context.Context, id string) (*listingdomain.Listing, error)
}

type userReader interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// Directory resolves order references against the listings and users contexts.
type Directory struct {
	listings listingReader
	users    userReader
}

func New(listings listingReader, users userReader) *Directory {
	return &Directory{listings: listings, users: users}
}

func (d *Directory) Listing(ctx context.Context, id string) (types.ListingSummary, error) {
	listing, err := d.listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, listingports.ErrNotFound) {
			return types.ListingSummary{}, ports.ErrListingNotFound
		}
		return types.ListingSummary{}, err
	}
	return types.ListingSummary{
		ID:           listing.ID,
		SellerID:     listing.SellerID,
		Title:        listing.Title,
		Cover:        listing.Cover,
		Price:        listing.Price,
		DeliveryDays: listing.DeliveryDays,
	}, nil
}

func (d *Directory) User(ctx context.Context, id string) (types.PartySummary, error) {
	user, err := d.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userports.ErrNotFound) {
			return types.PartySummary{}, ports.ErrUserNotFound
		}
		return types.PartySummary{}, err
	}
	return types.PartySummary{
		ID:       user.ID,
		Username: user.Username,
		Img:      user.Img,
		Country:  user.Country,
	}, nil
}

var _ ports.Directory = (*Directory)(nil)
