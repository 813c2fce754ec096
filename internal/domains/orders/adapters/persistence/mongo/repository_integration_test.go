//go:build integration

package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
)

func setupMongoContainer(t *testing.T) (*mongo.Database, func()) {
	ctx := context.Background()

	container, err := tcmongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	cleanup := func() {
		_ = client.Disconnect(ctx)
		_ = container.Terminate(ctx)
	}
	return client.Database("marketplace_test"), cleanup
}

func newOrder(t *testing.T, id, buyer, seller string, createdAt time.Time) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(id, "listing-1", buyer, seller, decimal.RequireFromString("120.50"), 5, createdAt)
	require.NoError(t, err)
	return order
}

func TestRepository_Mongo_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupMongoContainer(t)
	defer cleanup()

	ctx := context.Background()
	repo, err := NewRepository(ctx, db)
	require.NoError(t, err)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	created, err := repo.Create(ctx, newOrder(t, "o-1", "buyer", "seller", now))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Version)

	_, err = repo.Create(ctx, newOrder(t, "o-1", "buyer", "seller", now))
	assert.ErrorIs(t, err, ports.ErrExists)

	stored, err := repo.GetByID(ctx, "o-1")
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(decimal.RequireFromString("120.50")))

	_, err = stored.Transition(domain.Standing{Seller: true}, "seller", domain.StatusActive, nil, now.Add(time.Minute))
	require.NoError(t, err)
	updated, err := repo.Update(ctx, stored)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	_, err = repo.Update(ctx, stored)
	assert.ErrorIs(t, err, ports.ErrConflict)

	missing := newOrder(t, "o-missing", "buyer", "seller", now)
	_, err = repo.Update(ctx, missing)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	reloaded, err := repo.GetByID(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, reloaded.Status)
}

func TestRepository_Mongo_ListAndDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupMongoContainer(t)
	defer cleanup()

	ctx := context.Background()
	repo, err := NewRepository(ctx, db)
	require.NoError(t, err)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	_, err = repo.Create(ctx, newOrder(t, "o-1", "alice", "bob", now))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newOrder(t, "o-2", "bob", "carol", now.Add(time.Hour)))
	require.NoError(t, err)

	orders, err := repo.List(ctx, ports.ListFilter{ParticipantID: "bob"})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "o-2", orders[0].ID)

	orders, err = repo.List(ctx, ports.ListFilter{BuyerID: "alice"})
	require.NoError(t, err)
	require.Len(t, orders, 1)

	require.NoError(t, repo.Delete(ctx, "o-1"))
	assert.ErrorIs(t, repo.Delete(ctx, "o-1"), ports.ErrNotFound)
}
