package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-marketplace/internal/domains/listings/domain"
	"github.com/Apurer/go-gin-marketplace/internal/domains/listings/ports"
	"github.com/Apurer/go-gin-marketplace/internal/shared/identity"
)

// CreateListing is the inbound payload for publishing a listing.
type CreateListing struct {
	Title        string          `json:"title" binding:"required,max=120"`
	Description  string          `json:"desc"`
	Category     string          `json:"cat" binding:"required"`
	Price        decimal.Decimal `json:"price"`
	DeliveryDays int             `json:"deliveryTime" binding:"omitempty,min=1,max=365"`
	Cover        string          `json:"cover,omitempty"`
	Images       []string        `json:"images,omitempty" binding:"omitempty,dive,url"`
}

// Listing is the HTTP representation of a catalog entry.
type Listing struct {
	ID           string          `json:"id"`
	SellerID     string          `json:"sellerId"`
	Title        string          `json:"title"`
	Description  string          `json:"desc,omitempty"`
	Category     string          `json:"cat"`
	Price        decimal.Decimal `json:"price"`
	DeliveryDays int             `json:"deliveryTime"`
	Cover        string          `json:"cover,omitempty"`
	Images       []string        `json:"images"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func ToCreateInput(caller identity.Identity, model CreateListing) ports.CreateListingInput {
	return ports.CreateListingInput{
		Caller:       caller,
		Title:        model.Title,
		Description:  model.Description,
		Category:     model.Category,
		Price:        model.Price,
		DeliveryDays: model.DeliveryDays,
		Cover:        model.Cover,
		Images:       model.Images,
	}
}

func FromDomainListing(listing *domain.Listing) Listing {
	if listing == nil {
		return Listing{}
	}
	images := listing.Images
	if images == nil {
		images = []string{}
	}
	return Listing{
		ID:           listing.ID,
		SellerID:     listing.SellerID,
		Title:        listing.Title,
		Description:  listing.Description,
		Category:     listing.Category,
		Price:        listing.Price,
		DeliveryDays: listing.DeliveryDays,
		Cover:        listing.Cover,
		Images:       images,
		CreatedAt:    listing.CreatedAt,
	}
}

func FromDomainListings(listings []*domain.Listing) []Listing {
	result := make([]Listing, 0, len(listings))
	for _, listing := range listings {
		result = append(result, FromDomainListing(listing))
	}
	return result
}
