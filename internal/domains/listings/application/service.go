package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-marketplace/internal/domains/listings/domain"
	"github.com/Apurer/go-gin-marketplace/internal/domains/listings/ports"
	"github.com/Apurer/go-gin-marketplace/internal/shared/identity"
)

// Service exposes listing bounded context use cases.
type Service struct {
	repo  ports.Repository
	now   func() time.Time
	newID func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{
		repo:  repo,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, input ports.CreateListingInput) (*domain.Listing, error) {
	if !input.Caller.IsSeller {
		return nil, ErrNotSeller
	}
	listing, err := domain.NewListing(s.newID(), input.Caller.UserID, input.Title, input.Price, input.DeliveryDays, s.now())
	if err != nil {
		return nil, mapError(err)
	}
	listing.Describe(input.Description, input.Category, input.Cover, input.Images)
	return s.repo.Create(ctx, listing)
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

func (s *Service) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Listing, error) {
	filter.SellerID = strings.TrimSpace(filter.SellerID)
	filter.Category = strings.ToLower(strings.TrimSpace(filter.Category))
	return s.repo.List(ctx, filter)
}

// Delete removes a listing. Only its seller or an admin may do so.
func (s *Service) Delete(ctx context.Context, caller identity.Identity, id string) error {
	listing, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if listing.SellerID != caller.UserID && !caller.IsAdmin {
		return ErrNotOwner
	}
	return s.repo.Delete(ctx, listing.ID)
}

var _ ports.Service = (*Service)(nil)
