package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultDeliveryDays = 7

var (
	ErrEmptyListingID = errors.New("listing id is required")
	ErrEmptySeller    = errors.New("seller is required")
	ErrEmptyTitle     = errors.New("title is required")
	ErrNegativePrice  = errors.New("price must not be negative")
	ErrDeliveryDays   = errors.New("delivery days must be positive")
)

// Listing is a purchasable service offered by a seller.
type Listing struct {
	ID           string
	SellerID     string
	Title        string
	Description  string
	Category     string
	Price        decimal.Decimal
	DeliveryDays int
	Cover        string
	Images       []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewListing validates the catalog invariants. A zero deliveryDays falls back to the default.
func NewListing(id, sellerID, title string, price decimal.Decimal, deliveryDays int, now time.Time) (*Listing, error) {
	listing := &Listing{
		ID:           strings.TrimSpace(id),
		SellerID:     strings.TrimSpace(sellerID),
		Title:        strings.TrimSpace(title),
		Price:        price,
		DeliveryDays: deliveryDays,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if listing.DeliveryDays == 0 {
		listing.DeliveryDays = DefaultDeliveryDays
	}
	if err := listing.Validate(); err != nil {
		return nil, err
	}
	return listing, nil
}

func (l *Listing) Describe(description, category, cover string, images []string) {
	l.Description = strings.TrimSpace(description)
	l.Category = strings.ToLower(strings.TrimSpace(category))
	l.Cover = strings.TrimSpace(cover)
	l.Images = nil
	for _, img := range images {
		if img = strings.TrimSpace(img); img != "" {
			l.Images = append(l.Images, img)
		}
	}
}

func (l *Listing) Validate() error {
	switch {
	case l.ID == "":
		return ErrEmptyListingID
	case l.SellerID == "":
		return ErrEmptySeller
	case l.Title == "":
		return ErrEmptyTitle
	case l.Price.IsNegative():
		return ErrNegativePrice
	case l.DeliveryDays <= 0:
		return ErrDeliveryDays
	}
	return nil
}

func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	clone := *l
	clone.Images = append([]string(nil), l.Images...)
	return &clone
}
