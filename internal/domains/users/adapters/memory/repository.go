package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Apurer/go-gin-marketplace/internal/domains/users/domain"
	"github.com/Apurer/go-gin-marketplace/internal/domains/users/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory user persistence adapter.
type Repository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewRepository() *Repository {
	return &Repository{users: map[string]*domain.User{}}
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (r *Repository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if user == nil || user.ID == "" {
		return nil, errors.New("user id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.ID == user.ID ||
			normalize(existing.Username) == normalize(user.Username) ||
			existing.Email == user.Email {
			return nil, ports.ErrExists
		}
	}
	r.users[user.ID] = user.Clone()
	return user.Clone(), nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return user.Clone(), nil
}

func (r *Repository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if normalize(user.Username) == normalize(username) {
			return user.Clone(), nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.users, id)
	return nil
}
