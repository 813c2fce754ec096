package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-marketplace/internal/domains/users/domain"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrExists             = errors.New("username or email already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type Repository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
