package mongo

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/domain"
)

// orderDocument keeps the order ID as the document key so lookups hit the default _id index.
type orderDocument struct {
	ID           string     `bson:"_id"`
	ListingID    string     `bson:"listing_id"`
	BuyerID      string     `bson:"buyer_id"`
	SellerID     string     `bson:"seller_id"`
	Amount       string     `bson:"amount"`
	Status       string     `bson:"status"`
	Notes        string     `bson:"notes,omitempty"`
	DeliveryDate time.Time  `bson:"delivery_date"`
	CompletedAt  *time.Time `bson:"completed_at,omitempty"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
	Version      int64      `bson:"version"`
}

func toDocument(order *domain.Order) orderDocument {
	return orderDocument{
		ID:           order.ID,
		ListingID:    order.ListingID,
		BuyerID:      order.BuyerID,
		SellerID:     order.SellerID,
		Amount:       order.Amount.String(),
		Status:       string(order.Status),
		Notes:        order.Notes,
		DeliveryDate: order.DeliveryDate,
		CompletedAt:  order.CompletedAt,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
		Version:      order.Version,
	}
}

func (d orderDocument) toDomain() (*domain.Order, error) {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return nil, err
	}
	order := &domain.Order{
		ID:           d.ID,
		ListingID:    d.ListingID,
		BuyerID:      d.BuyerID,
		SellerID:     d.SellerID,
		Amount:       amount,
		Status:       domain.Status(d.Status),
		Notes:        d.Notes,
		DeliveryDate: d.DeliveryDate.UTC(),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
		Version:      d.Version,
	}
	if d.CompletedAt != nil {
		completed := d.CompletedAt.UTC()
		order.CompletedAt = &completed
	}
	return order, nil
}
