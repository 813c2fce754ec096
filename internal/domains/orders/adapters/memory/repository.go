package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory order persistence adapter.
// Update holds the write lock across the version check and the write.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewRepository() *Repository {
	return &Repository{orders: map[string]*domain.Order{}}
}

func (r *Repository) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	clone := order.Clone()
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[clone.ID]; ok {
		return nil, ports.ErrExists
	}
	clone.Version = 1
	r.orders[clone.ID] = clone
	return clone.Clone(), nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *Repository) Update(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if stored.Version != order.Version {
		return nil, ports.ErrConflict
	}
	clone := order.Clone()
	clone.Version = stored.Version + 1
	r.orders[clone.ID] = clone
	return clone.Clone(), nil
}

func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if matches(order, filter) {
			list = append(list, order.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

func matches(order *domain.Order, filter ports.ListFilter) bool {
	if filter.BuyerID != "" && order.BuyerID != filter.BuyerID {
		return false
	}
	if filter.SellerID != "" && order.SellerID != filter.SellerID {
		return false
	}
	if filter.ParticipantID != "" && order.BuyerID != filter.ParticipantID && order.SellerID != filter.ParticipantID {
		return false
	}
	if filter.Status != "" && order.Status != filter.Status {
		return false
	}
	return true
}
