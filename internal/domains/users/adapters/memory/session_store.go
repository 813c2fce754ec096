package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Apurer/go-gin-marketplace/internal/domains/users/ports"
)

// SessionStore is an in-memory SessionStore implementation.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]ports.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[string]ports.Session{}}
}

func (s *SessionStore) Save(_ context.Context, session ports.Session) error {
	if session.Token == "" || session.UserID == "" {
		return errors.New("token and user id are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
	return nil
}

func (s *SessionStore) Active(_ context.Context, token string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	return ok && now.Before(session.ExpiresAt), nil
}

func (s *SessionStore) DeleteByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, token)
		}
	}
	return nil
}

func (s *SessionStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged int64
	for token, session := range s.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(s.sessions, token)
			purged++
		}
	}
	return purged, nil
}

var _ ports.SessionStore = (*SessionStore)(nil)
