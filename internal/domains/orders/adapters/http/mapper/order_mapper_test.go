package mapper

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	ordertypes "github.com/Apurer/go-gin-marketplace/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-marketplace/internal/shared/identity"
)

func TestFromOrderView_FallsBackToReferenceIDs(t *testing.T) {
	completed := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	view := &ordertypes.OrderView{
		Order: &domain.Order{
			ID:          "order-1",
			ListingID:   "listing-1",
			BuyerID:     "buyer-1",
			SellerID:    "seller-1",
			Amount:      decimal.RequireFromString("12.50"),
			Status:      domain.StatusCompleted,
			CompletedAt: &completed,
			Version:     4,
		},
		Listing: ordertypes.ListingSummary{Title: "Logo"},
		Seller:  ordertypes.PartySummary{ID: "seller-1", Username: "sam"},
	}

	got := FromOrderView(view)

	assert.Equal(t, "listing-1", got.Listing.ID)
	assert.Equal(t, "Logo", got.Listing.Title)
	assert.Equal(t, "buyer-1", got.Buyer.ID)
	assert.Empty(t, got.Buyer.Username)
	assert.Equal(t, "sam", got.Seller.Username)
	assert.Equal(t, "completed", got.Status)
	assert.Equal(t, &completed, got.CompletedDate)
	assert.Equal(t, int64(4), got.Version)
	assert.Equal(t, Order{}, FromOrderView(nil))
}

func TestToTransitionInput_CarriesCallerStanding(t *testing.T) {
	notes := "shipped"
	input := ToTransitionInput(identity.Identity{UserID: "root", IsAdmin: true, IsSeller: true}, "order-1", UpdateOrderStatus{Status: "delivered", Notes: &notes})

	assert.Equal(t, domain.Caller{ID: "root", IsAdmin: true}, input.Caller)
	assert.Equal(t, "order-1", input.OrderID)
	assert.Equal(t, "delivered", input.Status)
	assert.Equal(t, &notes, input.Notes)
}
