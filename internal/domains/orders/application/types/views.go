package types

import (
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/domain"
)

// PartySummary is the minimal display data of a buyer or seller.
type PartySummary struct {
	ID       string
	Username string
	Img      string
	Country  string
}

// ListingSummary is the minimal display and pricing data of a purchased listing.
type ListingSummary struct {
	ID           string
	SellerID     string
	Title        string
	Cover        string
	Price        decimal.Decimal
	DeliveryDays int
}

// OrderView is an order with its references resolved for display.
type OrderView struct {
	Order   *domain.Order
	Listing ListingSummary
	Buyer   PartySummary
	Seller  PartySummary
}
