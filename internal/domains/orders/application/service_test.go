package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
)

var testNow = time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)

type fakeOrderRepo struct {
	mu           sync.Mutex
	orders       map[string]*domain.Order
	beforeUpdate func(order *domain.Order)
	afterGet     func()
	updates      int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]*domain.Order{}}
}

func (f *fakeOrderRepo) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[order.ID]; ok {
		return nil, ports.ErrExists
	}
	clone := order.Clone()
	clone.Version = 1
	f.orders[order.ID] = clone
	return clone.Clone(), nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	o, ok := f.orders[id]
	if ok {
		o = o.Clone()
	}
	hook := f.afterGet
	f.afterGet = nil
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if !ok {
		return nil, ports.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) Update(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if hook := f.beforeUpdate; hook != nil {
		f.beforeUpdate = nil
		hook(order)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	stored, ok := f.orders[order.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if stored.Version != order.Version {
		return nil, ports.ErrConflict
	}
	clone := order.Clone()
	clone.Version++
	f.orders[order.ID] = clone
	return clone.Clone(), nil
}

func (f *fakeOrderRepo) List(_ context.Context, filter ports.ListFilter) ([]*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []*domain.Order
	for _, o := range f.orders {
		if filter.ParticipantID != "" && o.BuyerID != filter.ParticipantID && o.SellerID != filter.ParticipantID {
			continue
		}
		if filter.BuyerID != "" && o.BuyerID != filter.BuyerID {
			continue
		}
		if filter.SellerID != "" && o.SellerID != filter.SellerID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		list = append(list, o.Clone())
	}
	return list, nil
}

func (f *fakeOrderRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[id]; !ok {
		return ports.ErrNotFound
	}
	delete(f.orders, id)
	return nil
}

// put stores an order directly, bypassing placement.
func (f *fakeOrderRepo) put(t *testing.T, status domain.Status) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder("order-1", "listing-1", "buyer-1", "seller-1", decimal.RequireFromString("120.00"), 5, testNow)
	require.NoError(t, err)
	order.Status = status
	order.Notes = "initial"
	order.Version = 1
	f.mu.Lock()
	f.orders[order.ID] = order.Clone()
	f.mu.Unlock()
	return order
}

type fakeDirectory struct {
	listings map[string]types.ListingSummary
	users    map[string]types.PartySummary
	failures int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		listings: map[string]types.ListingSummary{
			"listing-1": {ID: "listing-1", SellerID: "seller-1", Title: "Logo design", Price: decimal.RequireFromString("120.00"), DeliveryDays: 5},
		},
		users: map[string]types.PartySummary{
			"buyer-1":  {ID: "buyer-1", Username: "bea"},
			"seller-1": {ID: "seller-1", Username: "sam"},
		},
	}
}

func (f *fakeDirectory) Listing(_ context.Context, id string) (types.ListingSummary, error) {
	if l, ok := f.listings[id]; ok {
		return l, nil
	}
	f.failures++
	return types.ListingSummary{}, ports.ErrListingNotFound
}

func (f *fakeDirectory) User(_ context.Context, id string) (types.PartySummary, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	f.failures++
	return types.PartySummary{}, ports.ErrUserNotFound
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []ports.Notification
}

func (r *recordingDispatcher) Dispatch(n ports.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

type fakeCache struct {
	mu          sync.Mutex
	orders      map[string]*domain.Order
	invalidated []string
	err         error
}

func newFakeCache() *fakeCache {
	return &fakeCache{orders: map[string]*domain.Order{}}
}

func (f *fakeCache) Get(_ context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if o, ok := f.orders[id]; ok {
		return o.Clone(), nil
	}
	return nil, nil
}

func (f *fakeCache) Set(_ context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if cached, ok := f.orders[order.ID]; ok && cached.Version > order.Version {
		return nil
	}
	f.orders[order.ID] = order.Clone()
	return nil
}

func (f *fakeCache) Invalidate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, id)
	delete(f.orders, id)
	return f.err
}

type fakeIdempotencyStore struct {
	records map[string]ports.IdempotencyRecord
	saveErr error
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{records: map[string]ports.IdempotencyRecord{}}
}

func (f *fakeIdempotencyStore) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	if rec, ok := f.records[key]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (f *fakeIdempotencyStore) Save(_ context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	if existing, ok := f.records[record.Key]; ok {
		if existing.RequestHash != record.RequestHash || existing.OrderID != record.OrderID {
			return &existing, ports.ErrIdempotencyConflict
		}
		return &existing, nil
	}
	f.records[record.Key] = record
	return &record, nil
}

type fixture struct {
	repo       *fakeOrderRepo
	directory  *fakeDirectory
	dispatcher *recordingDispatcher
	cache      *fakeCache
	svc        *Service
}

func newFixture(opts ...Option) *fixture {
	f := &fixture{
		repo:       newFakeOrderRepo(),
		directory:  newFakeDirectory(),
		dispatcher: &recordingDispatcher{},
		cache:      newFakeCache(),
	}
	base := []Option{
		WithDirectory(f.directory),
		WithDispatcher(f.dispatcher),
		WithCache(f.cache),
		WithClock(func() time.Time { return testNow }),
	}
	f.svc = NewService(f.repo, append(base, opts...)...)
	return f
}

func seller() domain.Caller { return domain.Caller{ID: "seller-1"} }
func buyer() domain.Caller  { return domain.Caller{ID: "buyer-1"} }
func admin() domain.Caller  { return domain.Caller{ID: "root", IsAdmin: true} }

func strPtr(v string) *string { return &v }

func TestTransitionStatus_SellerActivatesPendingOrder(t *testing.T) {
	f := newFixture()
	f.repo.put(t, domain.StatusPending)

	view, err := f.svc.TransitionStatus(context.Background(), types.TransitionStatusInput{
		OrderID: "order-1", Caller: seller(), Status: "active",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, view.Order.Status)
	assert.Nil(t, view.Order.CompletedAt)
	assert.Equal(t, "initial", view.Order.Notes)
	assert.Equal(t, int64(2), view.Order.Version)
	assert.Equal(t, "sam", view.Seller.Username)
	assert.Equal(t, "bea", view.Buyer.Username)
	assert.Equal(t, "Logo design", view.Listing.Title)

	require.Len(t, f.dispatcher.sent, 1)
	sent := f.dispatcher.sent[0]
	assert.Equal(t, "buyer-1", sent.UserID)
	assert.Equal(t, ports.NotificationStatusChanged, sent.Kind)
	assert.Equal(t, "active", sent.Payload["to"])
	require.Contains(t, f.cache.orders, "order-1")
	assert.Equal(t, int64(2), f.cache.orders["order-1"].Version)
}

func TestTransitionStatus_PendingToDeliveredIsInvalid(t *testing.T) {
	f := newFixture()
	f.repo.put(t, domain.StatusPending)

	_, err := f.svc.TransitionStatus(context.Background(), types.TransitionStatusInput{
		OrderID: "order-1", Caller: seller(), Status: "delivered",
	})
	var transitionErr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, domain.StatusPending, transitionErr.From)
	assert.Equal(t, domain.StatusDelivered, transitionErr.To)
	assert.Zero(t, f.repo.updates)
	assert.Empty(t, f.dispatcher.sent)
}

func TestTransitionStatus_ThirdPartyIsUnauthorized(t *testing.T) {
	f := newFixture()
	f.repo.put(t, domain.StatusActive)

	_, err := f.svc.TransitionStatus(context.Background(), types.TransitionStatusInput{
		OrderID: "order-1", Caller: domain.Caller{ID: "stranger"}, Status: "delivered",
	})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	stored, err := f.repo.GetByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, stored.Status)
}

func TestTransitionStatus_BuyerCompletesDeliveredOrder(t *testing.T) {
	f := newFixture()
	f.repo.put(t, domain.StatusDelivered)

	view, err := f.svc.TransitionStatus(context.Background(), types.TransitionStatusInput{
		OrderID: "order-1", Caller: buyer(), Status: "completed", Notes: strPtr("great work"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, view.Order.Status)
	require.NotNil(t, view.Order.CompletedAt)
	assert.Equal(t, testNow, *view.Order.CompletedAt)
	assert.Equal(t, "great work", view.Order.Notes)

	_, err = f.svc.TransitionStatus(context.Background(), types.TransitionStatusInput{
		OrderID: "order-1", Caller: buyer(), Status: "completed",
	})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransitionStatus_AdminCannotCancelCompletedOrder(t *testing.T) {
	f := newFixture()
	f.repo.put(t, domain.StatusCompleted)

	_, err := f.svc.TransitionStatus(context.Background(), types.TransitionStatusInput{
		OrderID: "order-1", Caller: admin(), Status: "cancelled",
	})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransitionStatus_AdminNotifiesBothParties(t *testing.T) {
	f := newFixture()
	f.repo.put(t, domain.StatusDisputed)

	_, err := f.svc.TransitionStatus(context.Background(), types.TransitionStatusInput{
		OrderID: "order-1", Caller: admin(), Status: "completed",
	})
	require.NoError(t, err)
	require.Len(t, f.dispatcher.sent, 2)
	assert.ElementsMatch(t, []string{"buyer-1", "seller-1"}, []string{f.dispatcher.sent[0].UserID, f.dispatcher.sent[1].UserID})
}

func TestTransitionStatus_NotFoundAndBadInput(t *testing.T) {
	f := newFixture()

	_, err := f.svc.TransitionStatus(context.Background(), types.TransitionStatusInput{
		OrderID: "missing", Caller: admin(), Status: "active",
	})
	require.ErrorIs(t, err, ports.ErrNotFound)

	_, err = f.svc.TransitionStatus(context.Background(), types.TransitionStatusInput{
		OrderID: "order-1", Caller: admin(), Status: "shipped",
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestTransitionStatus_ConflictRereadsAndRechecks(t *testing.T) {
	f := newFixture()
	f.repo.put(t, domain.StatusActive)
	// A competing request cancels the order between our read and our write.
	f.repo.beforeUpdate = func(*domain.Order) {
		f.repo.mu.Lock()
		defer f.repo.mu.Unlock()
		stored := f.repo.orders["order-1"]
		stored.Status = domain.StatusCancelled
		stored.Version++
	}

	_, err := f.svc.TransitionStatus(context.Background(), types.TransitionStatusInput{
		OrderID: "order-1", Caller: seller(), Status: "delivered",
	})
	var transitionErr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, domain.StatusCancelled, transitionErr.From)
	assert.Empty(t, f.dispatcher.sent)
}

func TestTransitionStatus_ConflictWithoutRetrySurfaces(t *testing.T) {
	f := newFixture(WithConflictRetries(0))
	f.repo.put(t, domain.StatusActive)
	f.repo.beforeUpdate = func(*domain.Order) {
		f.repo.mu.Lock()
		defer f.repo.mu.Unlock()
		f.repo.orders["order-1"].Version++
	}

	_, err := f.svc.TransitionStatus(context.Background(), types.TransitionStatusInput{
		OrderID: "order-1", Caller: seller(), Status: "delivered",
	})
	require.ErrorIs(t, err, ports.ErrConflict)
}

func TestTransitionStatus_ConcurrentRequestsExactlyOneWins(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture()
		f.repo.put(t, domain.StatusActive)

		targets := []string{"delivered", "cancelled"}
		errs := make([]error, len(targets))
		var wg sync.WaitGroup
		for idx, target := range targets {
			wg.Add(1)
			go func(idx int, target string) {
				defer wg.Done()
				_, errs[idx] = f.svc.TransitionStatus(context.Background(), types.TransitionStatusInput{
					OrderID: "order-1", Caller: seller(), Status: target,
				})
			}(idx, target)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.True(t, errors.Is(err, ports.ErrConflict) || errors.Is(err, domain.ErrInvalidTransition), err)
		}
		assert.Equal(t, 1, succeeded)
	}
}

func TestTransitionStatus_DirectoryFailureStillSucceeds(t *testing.T) {
	f := newFixture()
	f.directory.users = map[string]types.PartySummary{}
	f.repo.put(t, domain.StatusPending)

	view, err := f.svc.TransitionStatus(context.Background(), types.TransitionStatusInput{
		OrderID: "order-1", Caller: buyer(), Status: "cancelled",
	})
	require.NoError(t, err)
	assert.Equal(t, "buyer-1", view.Buyer.ID)
	assert.Empty(t, view.Buyer.Username)
}

func TestPlaceOrder_UsesListingPriceAndSeller(t *testing.T) {
	f := newFixture(WithIDGenerator(func() string { return "order-9" }))

	view, err := f.svc.PlaceOrder(context.Background(), types.PlaceOrderInput{Caller: buyer(), ListingID: "listing-1"})
	require.NoError(t, err)
	assert.Equal(t, "order-9", view.Order.ID)
	assert.Equal(t, domain.StatusPending, view.Order.Status)
	assert.Equal(t, "seller-1", view.Order.SellerID)
	assert.True(t, decimal.RequireFromString("120").Equal(view.Order.Amount))
	assert.Equal(t, testNow.AddDate(0, 0, 5), view.Order.DeliveryDate)

	require.Len(t, f.dispatcher.sent, 1)
	assert.Equal(t, "seller-1", f.dispatcher.sent[0].UserID)
	assert.Equal(t, ports.NotificationOrderPlaced, f.dispatcher.sent[0].Kind)
}

func TestPlaceOrder_RejectsSelfPurchaseAndMissingListing(t *testing.T) {
	f := newFixture()

	_, err := f.svc.PlaceOrder(context.Background(), types.PlaceOrderInput{Caller: seller(), ListingID: "listing-1"})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrSelfPurchase)

	_, err = f.svc.PlaceOrder(context.Background(), types.PlaceOrderInput{Caller: buyer(), ListingID: "nope"})
	require.ErrorIs(t, err, ports.ErrListingNotFound)
}

func TestPlaceOrder_IdempotencyKeyReplays(t *testing.T) {
	ids := []string{"order-a", "order-b"}
	f := newFixture(
		WithIdempotencyStore(newFakeIdempotencyStore()),
		WithIDGenerator(func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		}),
	)
	input := types.PlaceOrderInput{Caller: buyer(), ListingID: "listing-1", IdempotencyKey: "key-1"}

	first, err := f.svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	second, err := f.svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Len(t, f.repo.orders, 1)

	f.directory.listings["listing-2"] = types.ListingSummary{ID: "listing-2", SellerID: "seller-1", Price: decimal.NewFromInt(5)}
	_, err = f.svc.PlaceOrder(context.Background(), types.PlaceOrderInput{Caller: buyer(), ListingID: "listing-2", IdempotencyKey: "key-1"})
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
}

func TestPlaceOrder_IdempotencyKeyIsScopedPerBuyer(t *testing.T) {
	ids := []string{"order-a", "order-b"}
	store := newFakeIdempotencyStore()
	f := newFixture(
		WithIdempotencyStore(store),
		WithIDGenerator(func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		}),
	)
	f.directory.users["buyer-2"] = types.PartySummary{ID: "buyer-2", Username: "bob"}

	first, err := f.svc.PlaceOrder(context.Background(), types.PlaceOrderInput{Caller: buyer(), ListingID: "listing-1", IdempotencyKey: "retry-1"})
	require.NoError(t, err)
	second, err := f.svc.PlaceOrder(context.Background(), types.PlaceOrderInput{Caller: domain.Caller{ID: "buyer-2"}, ListingID: "listing-1", IdempotencyKey: "retry-1"})
	require.NoError(t, err)

	assert.NotEqual(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, "buyer-2", second.Order.BuyerID)
	assert.Len(t, f.repo.orders, 2)
	assert.Contains(t, store.records, "buyer-1/retry-1")
	assert.Contains(t, store.records, "buyer-2/retry-1")
}

func TestPlaceOrder_IdempotencyStoreFailureDiscardsOrder(t *testing.T) {
	store := newFakeIdempotencyStore()
	store.saveErr = errors.New("store unavailable")
	f := newFixture(WithIdempotencyStore(store))

	_, err := f.svc.PlaceOrder(context.Background(), types.PlaceOrderInput{Caller: buyer(), ListingID: "listing-1", IdempotencyKey: "key-1"})
	require.ErrorIs(t, err, store.saveErr)
	assert.Empty(t, f.repo.orders)
	assert.Empty(t, f.dispatcher.sent)
}

func TestGetOrder_ConcurrentTransitionIsNotOverwrittenByStaleRead(t *testing.T) {
	f := newFixture()
	f.repo.put(t, domain.StatusPending)

	// The transition commits after GetOrder has read the pending snapshot but before it fills the cache.
	f.repo.afterGet = func() {
		_, err := f.svc.TransitionStatus(context.Background(), types.TransitionStatusInput{
			OrderID: "order-1", Caller: seller(), Status: string(domain.StatusActive),
		})
		require.NoError(t, err)
	}
	stale, err := f.svc.GetOrder(context.Background(), types.OrderIdentifier{OrderID: "order-1", Caller: buyer()})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stale.Order.Status)

	stored, err := f.repo.GetByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, stored.Status)

	view, err := f.svc.GetOrder(context.Background(), types.OrderIdentifier{OrderID: "order-1", Caller: buyer()})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, view.Order.Status)
	assert.Equal(t, stored.Version, view.Order.Version)
}

func TestGetOrder_ParticipantsOnlyAndCached(t *testing.T) {
	f := newFixture()
	f.repo.put(t, domain.StatusActive)

	view, err := f.svc.GetOrder(context.Background(), types.OrderIdentifier{OrderID: "order-1", Caller: buyer()})
	require.NoError(t, err)
	assert.Equal(t, "order-1", view.Order.ID)
	assert.Contains(t, f.cache.orders, "order-1")

	_, err = f.svc.GetOrder(context.Background(), types.OrderIdentifier{OrderID: "order-1", Caller: domain.Caller{ID: "stranger"}})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.GetOrder(context.Background(), types.OrderIdentifier{OrderID: "order-1", Caller: admin()})
	require.NoError(t, err)
}

func TestGetOrder_CacheFailureFallsBackToRepository(t *testing.T) {
	f := newFixture()
	f.cache.err = errors.New("redis down")
	f.repo.put(t, domain.StatusActive)

	view, err := f.svc.GetOrder(context.Background(), types.OrderIdentifier{OrderID: "order-1", Caller: seller()})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, view.Order.Status)
}

func TestListOrders_ByRole(t *testing.T) {
	f := newFixture()
	f.repo.put(t, domain.StatusActive)

	asSeller, err := f.svc.ListOrders(context.Background(), types.ListOrdersInput{Caller: seller(), Role: "seller"})
	require.NoError(t, err)
	assert.Len(t, asSeller, 1)

	asBuyerSeller, err := f.svc.ListOrders(context.Background(), types.ListOrdersInput{Caller: buyer(), Role: "seller"})
	require.NoError(t, err)
	assert.Empty(t, asBuyerSeller)

	all, err := f.svc.ListOrders(context.Background(), types.ListOrdersInput{Caller: admin(), All: true, Status: "active"})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = f.svc.ListOrders(context.Background(), types.ListOrdersInput{Caller: buyer(), Role: "courier"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteOrder_AdminOnly(t *testing.T) {
	f := newFixture()
	f.repo.put(t, domain.StatusCancelled)

	err := f.svc.DeleteOrder(context.Background(), types.OrderIdentifier{OrderID: "order-1", Caller: buyer()})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	err = f.svc.DeleteOrder(context.Background(), types.OrderIdentifier{OrderID: "order-1", Caller: admin()})
	require.NoError(t, err)
	assert.Contains(t, f.cache.invalidated, "order-1")

	err = f.svc.DeleteOrder(context.Background(), types.OrderIdentifier{OrderID: "order-1", Caller: admin()})
	require.ErrorIs(t, err, ports.ErrNotFound)
}
