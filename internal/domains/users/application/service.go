package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-marketplace/internal/domains/users/domain"
	"github.com/Apurer/go-gin-marketplace/internal/domains/users/ports"
	"github.com/Apurer/go-gin-marketplace/internal/shared/identity"
)

// Service exposes user bounded context use cases.
type Service struct {
	repo     ports.Repository
	sessions ports.SessionStore
	tokens   ports.TokenIssuer
	now      func() time.Time
	newID    func() string
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

func NewService(repo ports.Repository, sessions ports.SessionStore, tokens ports.TokenIssuer, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		sessions: sessions,
		tokens:   tokens,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	user, err := domain.NewUser(s.newID(), input.Username, input.Email, input.Password, input.Country, s.now())
	if err != nil {
		return nil, mapError(err)
	}
	user.UpdateProfile(input.Img, input.Phone, input.Description)
	user.IsSeller = input.IsSeller
	return s.repo.Create(ctx, user)
}

// Login verifies credentials, issues a token and records its session.
func (s *Service) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, mapError(ports.ErrInvalidCredentials)
	}
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, mapError(ports.ErrInvalidCredentials)
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, mapError(ports.ErrInvalidCredentials)
	}
	token, claims, err := s.tokens.Issue(user.ID, user.IsSeller, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	session := ports.Session{
		Token:     claims.TokenID,
		UserID:    user.ID,
		ExpiresAt: claims.ExpiresAt,
		CreatedAt: s.now(),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &ports.LoginResult{Token: token, ExpiresAt: claims.ExpiresAt, User: user}, nil
}

// Logout revokes every session of the user.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	return s.sessions.DeleteByUser(ctx, userID)
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

// Delete removes an account. Users may delete only themselves unless they are admins.
func (s *Service) Delete(ctx context.Context, caller identity.Identity, id string) error {
	id = strings.TrimSpace(id)
	if caller.UserID != id && !caller.IsAdmin {
		return ErrForbidden
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.DeleteByUser(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Authenticate resolves a bearer token to the caller identity. Revoked or expired sessions are rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (identity.Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	active, err := s.sessions.Active(ctx, claims.TokenID, s.now())
	if err != nil {
		return identity.Identity{}, err
	}
	if !active {
		return identity.Identity{}, fmt.Errorf("%w: session revoked or expired", ErrAuthentication)
	}
	return identity.Identity{UserID: claims.UserID, IsSeller: claims.IsSeller, IsAdmin: claims.IsAdmin}, nil
}

var _ ports.Service = (*Service)(nil)
