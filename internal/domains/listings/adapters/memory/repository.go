package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Apurer/go-gin-marketplace/internal/domains/listings/domain"
	"github.com/Apurer/go-gin-marketplace/internal/domains/listings/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory listing catalog.
type Repository struct {
	mu       sync.RWMutex
	listings map[string]*domain.Listing
}

func NewRepository() *Repository {
	return &Repository{listings: map[string]*domain.Listing{}}
}

func (r *Repository) Create(_ context.Context, listing *domain.Listing) (*domain.Listing, error) {
	if listing == nil {
		return nil, errors.New("listing is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[listing.ID] = listing.Clone()
	return listing.Clone(), nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.listings[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return listing.Clone(), nil
}

func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*domain.Listing
	for _, listing := range r.listings {
		if filter.SellerID != "" && listing.SellerID != filter.SellerID {
			continue
		}
		if filter.Category != "" && listing.Category != filter.Category {
			continue
		}
		result = append(result, listing.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.listings, id)
	return nil
}
