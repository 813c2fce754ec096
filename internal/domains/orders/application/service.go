package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
)

// DefaultConflictRetries is how many times a transition is re-read and re-checked after a write conflict.
const DefaultConflictRetries = 1

// Service orchestrates the order lifecycle use cases.
type Service struct {
	repo            ports.Repository
	directory       ports.Directory
	cache           ports.OrderCache
	notifications   ports.Dispatcher
	idempotency     ports.IdempotencyStore
	logger          *slog.Logger
	now             func() time.Time
	newID           func() string
	conflictRetries int
}

type Option func(*Service)

// WithDirectory resolves listings and users for placement and display.
func WithDirectory(directory ports.Directory) Option {
	return func(s *Service) { s.directory = directory }
}

// WithCache fronts order reads with a cache.
func WithCache(cache ports.OrderCache) Option {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithDispatcher sets where counterparty notifications go.
func WithDispatcher(dispatcher ports.Dispatcher) Option {
	return func(s *Service) {
		if dispatcher != nil {
			s.notifications = dispatcher
		}
	}
}

// WithIdempotencyStore enables Idempotency-Key replay for order placement.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) { s.idempotency = store }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how new order ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithConflictRetries sets how many re-read attempts follow a write conflict. Zero disables retrying.
func WithConflictRetries(retries int) Option {
	return func(s *Service) {
		if retries >= 0 {
			s.conflictRetries = retries
		}
	}
}

// NewService wires the orders service with its dependencies.
func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{
		repo:            repo,
		cache:           ports.NoopCache,
		notifications:   ports.NoopDispatcher,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:             func() time.Time { return time.Now().UTC() },
		newID:           uuid.NewString,
		conflictRetries: DefaultConflictRetries,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// PlaceOrder creates a pending order for a listing, priced and assigned from the listing itself.
func (s *Service) PlaceOrder(ctx context.Context, input types.PlaceOrderInput) (*types.OrderView, error) {
	listingID := strings.TrimSpace(input.ListingID)
	if listingID == "" {
		return nil, mapError(domain.ErrEmptyListingID)
	}
	if strings.TrimSpace(input.Caller.ID) == "" {
		return nil, mapError(domain.ErrEmptyParticipant)
	}
	if s.directory == nil {
		return nil, errors.New("listing directory not configured")
	}

	key := idempotencyScope(input.Caller.ID, input.IdempotencyKey)
	var requestHash string
	if key != "" && s.idempotency != nil {
		hash, err := FingerprintPlaceOrder(input)
		if err != nil {
			return nil, err
		}
		requestHash = hash
		existing, err := s.idempotency.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return s.replay(ctx, existing, requestHash)
		}
	}

	listing, err := s.directory.Listing(ctx, listingID)
	if err != nil {
		return nil, mapError(err)
	}
	order, err := domain.NewOrder(s.newID(), listing.ID, input.Caller.ID, listing.SellerID, listing.Price, listing.DeliveryDays, s.now())
	if err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, mapError(err)
	}

	if requestHash != "" {
		stored, err := s.idempotency.Save(ctx, ports.IdempotencyRecord{Key: key, RequestHash: requestHash, OrderID: saved.ID})
		if err != nil {
			if errors.Is(err, ports.ErrIdempotencyConflict) && stored != nil && stored.RequestHash == requestHash {
				// A concurrent request with the same key won; hand back its order instead.
				if delErr := s.repo.Delete(ctx, saved.ID); delErr != nil {
					s.logger.WarnContext(ctx, "failed to discard duplicate order", slog.String("order.id", saved.ID), slog.String("error", delErr.Error()))
				}
				return s.replay(ctx, stored, requestHash)
			}
			if delErr := s.repo.Delete(ctx, saved.ID); delErr != nil {
				s.logger.WarnContext(ctx, "failed to discard unrecorded order", slog.String("order.id", saved.ID), slog.String("error", delErr.Error()))
			}
			return nil, err
		}
	}

	s.dispatch(ports.Notification{
		UserID:  saved.SellerID,
		Kind:    ports.NotificationOrderPlaced,
		OrderID: saved.ID,
		Payload: map[string]string{
			"listingId": saved.ListingID,
			"buyerId":   saved.BuyerID,
			"amount":    saved.Amount.StringFixed(2),
		},
	})
	return s.view(ctx, saved, &listing), nil
}

// TransitionStatus moves an order to the requested status if the caller is allowed to.
// A concurrent write makes the order re-read and the whole check re-run, up to the configured retries.
func (s *Service) TransitionStatus(ctx context.Context, input types.TransitionStatusInput) (*types.OrderView, error) {
	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" {
		return nil, mapError(domain.ErrEmptyOrderID)
	}
	target, err := domain.ParseStatus(input.Status)
	if err != nil {
		return nil, mapError(err)
	}

	var (
		updated *domain.Order
		event   domain.StatusChanged
	)
	for attempt := 0; ; attempt++ {
		updated, event, err = s.applyTransition(ctx, orderID, input, target)
		if !errors.Is(err, ports.ErrConflict) || attempt >= s.conflictRetries {
			break
		}
		s.logger.InfoContext(ctx, "order transition conflicted, re-reading",
			slog.String("order.id", orderID), slog.Int("attempt", attempt+1))
	}
	if err != nil {
		return nil, mapError(err)
	}

	s.refresh(ctx, updated)
	for _, userID := range updated.Counterparties(input.Caller.ID) {
		s.dispatch(ports.Notification{
			UserID:  userID,
			Kind:    ports.NotificationStatusChanged,
			OrderID: updated.ID,
			Payload: map[string]string{
				"from":    string(event.From),
				"to":      string(event.To),
				"actorId": event.ActorID,
			},
		})
	}
	return s.view(ctx, updated, nil), nil
}

func (s *Service) applyTransition(ctx context.Context, orderID string, input types.TransitionStatusInput, target domain.Status) (*domain.Order, domain.StatusChanged, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, domain.StatusChanged{}, err
	}
	standing := domain.StandingOf(order, input.Caller)
	event, err := order.Transition(standing, input.Caller.ID, target, input.Notes, s.now())
	if err != nil {
		return nil, domain.StatusChanged{}, err
	}
	saved, err := s.repo.Update(ctx, order)
	if err != nil {
		return nil, domain.StatusChanged{}, err
	}
	return saved, event, nil
}

// GetOrder loads an order visible to the caller.
func (s *Service) GetOrder(ctx context.Context, input types.OrderIdentifier) (*types.OrderView, error) {
	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" {
		return nil, mapError(domain.ErrEmptyOrderID)
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	if err := domain.Authorize(domain.StandingOf(order, input.Caller)); err != nil {
		return nil, err
	}
	return s.view(ctx, order, nil), nil
}

// ListOrders returns the caller's orders, or every order for administrators asking for all.
func (s *Service) ListOrders(ctx context.Context, input types.ListOrdersInput) ([]*types.OrderView, error) {
	filter := ports.ListFilter{}
	if !(input.All && input.Caller.IsAdmin) {
		if strings.TrimSpace(input.Caller.ID) == "" {
			return nil, domain.ErrUnauthorized
		}
		switch strings.ToLower(strings.TrimSpace(input.Role)) {
		case types.RoleAny:
			filter.ParticipantID = input.Caller.ID
		case types.RoleBuyer:
			filter.BuyerID = input.Caller.ID
		case types.RoleSeller:
			filter.SellerID = input.Caller.ID
		default:
			return nil, mapError(ErrInvalidRole)
		}
	}
	if strings.TrimSpace(input.Status) != "" {
		status, err := domain.ParseStatus(input.Status)
		if err != nil {
			return nil, mapError(err)
		}
		filter.Status = status
	}
	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}
	resolver := newSummaryResolver(s)
	views := make([]*types.OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, resolver.view(ctx, order, nil))
	}
	return views, nil
}

// DeleteOrder is an administrative removal outside the order lifecycle.
func (s *Service) DeleteOrder(ctx context.Context, input types.OrderIdentifier) error {
	if !input.Caller.IsAdmin {
		return domain.ErrUnauthorized
	}
	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" {
		return mapError(domain.ErrEmptyOrderID)
	}
	if err := s.repo.Delete(ctx, orderID); err != nil {
		return mapError(err)
	}
	s.invalidate(ctx, orderID)
	return nil
}

// idempotencyScope namespaces a client key by its buyer so different buyers never share a key.
func idempotencyScope(buyerID, key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	return strings.TrimSpace(buyerID) + "/" + key
}

func (s *Service) replay(ctx context.Context, record *ports.IdempotencyRecord, requestHash string) (*types.OrderView, error) {
	if record.RequestHash != requestHash {
		return nil, ports.ErrIdempotencyConflict
	}
	order, err := s.repo.GetByID(ctx, record.OrderID)
	if err != nil {
		return nil, mapError(err)
	}
	return s.view(ctx, order, nil), nil
}

func (s *Service) load(ctx context.Context, orderID string) (*domain.Order, error) {
	if cached, err := s.cache.Get(ctx, orderID); err != nil {
		s.logger.WarnContext(ctx, "order cache read failed", slog.String("order.id", orderID), slog.String("error", err.Error()))
	} else if cached != nil {
		return cached, nil
	}
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, order); err != nil {
		s.logger.WarnContext(ctx, "order cache write failed", slog.String("order.id", orderID), slog.String("error", err.Error()))
	}
	return order, nil
}

// refresh writes a freshly persisted order through to the cache. The cache keeps the highest
// version it has seen, so a slower reader filling it with an older snapshot cannot win.
func (s *Service) refresh(ctx context.Context, order *domain.Order) {
	if err := s.cache.Set(ctx, order); err != nil {
		s.logger.WarnContext(ctx, "order cache write failed", slog.String("order.id", order.ID), slog.String("error", err.Error()))
		s.invalidate(ctx, order.ID)
	}
}

func (s *Service) invalidate(ctx context.Context, orderID string) {
	if err := s.cache.Invalidate(ctx, orderID); err != nil {
		s.logger.WarnContext(ctx, "order cache invalidation failed", slog.String("order.id", orderID), slog.String("error", err.Error()))
	}
}

func (s *Service) dispatch(notification ports.Notification) {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = s.now()
	}
	s.notifications.Dispatch(notification)
}

func (s *Service) view(ctx context.Context, order *domain.Order, listing *types.ListingSummary) *types.OrderView {
	return newSummaryResolver(s).view(ctx, order, listing)
}

// summaryResolver memoizes directory lookups while building a batch of views.
type summaryResolver struct {
	svc      *Service
	listings map[string]types.ListingSummary
	users    map[string]types.PartySummary
}

func newSummaryResolver(s *Service) *summaryResolver {
	return &summaryResolver{
		svc:      s,
		listings: map[string]types.ListingSummary{},
		users:    map[string]types.PartySummary{},
	}
}

func (r *summaryResolver) view(ctx context.Context, order *domain.Order, listing *types.ListingSummary) *types.OrderView {
	view := &types.OrderView{Order: order}
	if listing != nil {
		view.Listing = *listing
	} else {
		view.Listing = r.listing(ctx, order.ListingID)
	}
	view.Buyer = r.user(ctx, order.BuyerID)
	view.Seller = r.user(ctx, order.SellerID)
	return view
}

func (r *summaryResolver) listing(ctx context.Context, id string) types.ListingSummary {
	if summary, ok := r.listings[id]; ok {
		return summary
	}
	summary := types.ListingSummary{ID: id}
	if r.svc.directory != nil {
		resolved, err := r.svc.directory.Listing(ctx, id)
		if err == nil {
			summary = resolved
		} else {
			r.svc.logger.DebugContext(ctx, "listing summary unavailable", slog.String("listing.id", id), slog.String("error", err.Error()))
		}
	}
	r.listings[id] = summary
	return summary
}

func (r *summaryResolver) user(ctx context.Context, id string) types.PartySummary {
	if summary, ok := r.users[id]; ok {
		return summary
	}
	summary := types.PartySummary{ID: id}
	if r.svc.directory != nil {
		resolved, err := r.svc.directory.User(ctx, id)
		if err == nil {
			summary = resolved
		} else {
			r.svc.logger.DebugContext(ctx, "user summary unavailable", slog.String("user.id", id), slog.String("error", err.Error()))
		}
	}
	r.users[id] = summary
	return summary
}

var _ ports.Service = (*Service)(nil)
