package ports

import (
	"context"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/domain"
)

// OrderCache is a read-through cache in front of the repository.
// Get returns nil, nil on a miss. Set never replaces a cached order with an older Version.
type OrderCache interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
	Set(ctx context.Context, order *domain.Order) error
	Invalidate(ctx context.Context, id string) error
}

// NoopCache never stores anything.
var NoopCache OrderCache = noopCache{}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*domain.Order, error) { return nil, nil }
func (noopCache) Set(context.Context, *domain.Order) error           { return nil }
func (noopCache) Invalidate(context.Context, string) error           { return nil }
