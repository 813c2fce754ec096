//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-marketplace/internal/platform/migrations"
)

func setupOrdersPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("marketplace_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func TestRepository_Postgres_CreateDuplicate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	order := newOrder(t, "o-1", "buyer", "seller")
	_, err := repo.Create(ctx, order)
	require.NoError(t, err)
	_, err = repo.Create(ctx, order)
	assert.ErrorIs(t, err, ports.ErrExists)
}

func TestRepository_Postgres_ConcurrentTransitions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	order := newOrder(t, "o-1", "buyer", "seller")
	order.Status = domain.StatusActive
	created, err := repo.Create(ctx, order)
	require.NoError(t, err)

	targets := []domain.Status{domain.StatusDelivered, domain.StatusCancelled}
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target domain.Status) {
			defer wg.Done()
			attempt := created.Clone()
			if _, err := attempt.Transition(domain.Standing{Seller: true}, "seller", target, nil, time.Now().UTC()); err != nil {
				errs[i] = err
				return
			}
			_, errs[i] = repo.Update(ctx, attempt)
		}(i, target)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ports.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)

	stored, err := repo.GetByID(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version)
}

func TestIdempotencyStore_Postgres_Conflict(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	store := NewIdempotencyStore(db)
	ctx := context.Background()

	_, err := store.Save(ctx, ports.IdempotencyRecord{Key: "k", RequestHash: "h1", OrderID: "o-1"})
	require.NoError(t, err)

	again, err := store.Save(ctx, ports.IdempotencyRecord{Key: "k", RequestHash: "h1", OrderID: "o-1"})
	require.NoError(t, err)
	assert.Equal(t, "o-1", again.OrderID)

	existing, err := store.Save(ctx, ports.IdempotencyRecord{Key: "k", RequestHash: "h2", OrderID: "o-2"})
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	assert.Equal(t, "o-1", existing.OrderID)
}

func TestIdempotencyStore_Postgres_ExpiredKeyIsTakenOver(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	now := time.Now().UTC()
	store := NewIdempotencyStore(db).WithRetention(time.Hour)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := store.Save(ctx, ports.IdempotencyRecord{Key: "k", RequestHash: "h1", OrderID: "o-1"})
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	missing, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, missing)

	replaced, err := store.Save(ctx, ports.IdempotencyRecord{Key: "k", RequestHash: "h2", OrderID: "o-2"})
	require.NoError(t, err)
	assert.Equal(t, "o-2", replaced.OrderID)

	stored, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "h2", stored.RequestHash)
}
