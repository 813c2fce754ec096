package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-marketplace/internal/domains/listings/adapters/memory"
	"github.com/Apurer/go-gin-marketplace/internal/domains/listings/ports"
	"github.com/Apurer/go-gin-marketplace/internal/shared/identity"
)

func newTestService() *Service {
	ids := 0
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return NewService(memory.NewRepository(),
		WithClock(func() time.Time {
			now = now.Add(time.Minute)
			return now
		}),
		WithIDGenerator(func() string {
			ids++
			return "listing-" + string(rune('0'+ids))
		}),
	)
}

var seller = identity.Identity{UserID: "seller-1", IsSeller: true}

func TestCreate_SellersOnly(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, ports.CreateListingInput{
		Caller: identity.Identity{UserID: "buyer-1"},
		Title:  "Logo", Price: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, ErrNotSeller)

	listing, err := svc.Create(ctx, ports.CreateListingInput{
		Caller: seller, Title: "Logo", Category: "Design", Price: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, "seller-1", listing.SellerID)
	assert.Equal(t, "design", listing.Category)
	assert.Equal(t, 7, listing.DeliveryDays)

	_, err = svc.Create(ctx, ports.CreateListingInput{Caller: seller, Title: "", Price: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListAndDelete(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, ports.CreateListingInput{Caller: seller, Title: "Logo", Category: "design", Price: decimal.NewFromInt(10)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, ports.CreateListingInput{Caller: seller, Title: "Copy", Category: "writing", Price: decimal.NewFromInt(20)})
	require.NoError(t, err)

	design, err := svc.List(ctx, ports.ListFilter{Category: " DESIGN "})
	require.NoError(t, err)
	require.Len(t, design, 1)
	assert.Equal(t, first.ID, design[0].ID)

	all, err := svc.List(ctx, ports.ListFilter{SellerID: "seller-1"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	err = svc.Delete(ctx, identity.Identity{UserID: "someone-else", IsSeller: true}, first.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	require.NoError(t, svc.Delete(ctx, identity.Identity{UserID: "root", IsAdmin: true}, first.ID))
	_, err = svc.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}
