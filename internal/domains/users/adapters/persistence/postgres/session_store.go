package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	userports "github.com/Apurer/go-gin-marketplace/internal/domains/users/ports"
)

// SessionStore persists user sessions in PostgreSQL.
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore wires a PostgreSQL-backed session store. Caller owns DB lifecycle.
func NewSessionStore(db *gorm.DB) *SessionStore {
	store := &SessionStore{db: db}
	if db != nil {
		_ = db.AutoMigrate(&sessionRecord{})
	}
	return store
}

type sessionRecord struct {
	Token     string    `gorm:"primaryKey;column:token;size:64"`
	UserID    string    `gorm:"column:user_id;size:64;index"`
	ExpiresAt time.Time `gorm:"column:expires_at;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (sessionRecord) TableName() string { return "user_sessions" }

// Save upserts a session keyed by token ID.
func (s *SessionStore) Save(ctx context.Context, session userports.Session) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	token := strings.TrimSpace(session.Token)
	userID := strings.TrimSpace(session.UserID)
	if token == "" || userID == "" {
		return errors.New("token and user id are required")
	}
	rec := sessionRecord{Token: token, UserID: userID, ExpiresAt: session.ExpiresAt, CreatedAt: session.CreatedAt}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "expires_at"}),
		}).
		Create(&rec).Error
}

func (s *SessionStore) Active(ctx context.Context, token string, now time.Time) (bool, error) {
	if err := s.ensureDB(); err != nil {
		return false, err
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&sessionRecord{}).
		Where("token = ? AND expires_at > ?", strings.TrimSpace(token), now).
		Count(&count).Error
	return count > 0, err
}

// DeleteByUser revokes every session the user holds.
func (s *SessionStore) DeleteByUser(ctx context.Context, userID string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil
	}
	return s.db.WithContext(ctx).Delete(&sessionRecord{}, "user_id = ?", userID).Error
}

// PurgeExpired removes all expired sessions. Use for housekeeping or cron.
func (s *SessionStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	result := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&sessionRecord{})
	return result.RowsAffected, result.Error
}

func (s *SessionStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres session store not configured")
	}
	return nil
}

var _ userports.SessionStore = (*SessionStore)(nil)
