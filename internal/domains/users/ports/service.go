package ports

import (
	"context"
	"time"

	"github.com/Apurer/go-gin-marketplace/internal/domains/users/domain"
	"github.com/Apurer/go-gin-marketplace/internal/shared/identity"
)

type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	Country     string
	Img         string
	Phone       string
	Description string
	IsSeller    bool
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Service exposes user bounded context use cases to adapters.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Logout(ctx context.Context, userID string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Delete(ctx context.Context, caller identity.Identity, id string) error
	Authenticate(ctx context.Context, token string) (identity.Identity, error)
}
