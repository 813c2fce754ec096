package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	userports "github.com/Apurer/go-gin-marketplace/internal/domains/users/ports"
)

// SessionPurgeJob deletes expired sessions on a fixed interval.
type SessionPurgeJob struct {
	store   userports.SessionStore
	cron    *cron.Cron
	logger  *slog.Logger
	now     func() time.Time
	timeout time.Duration
}

// NewSessionPurgeJob prepares a purge job; nothing runs until Start.
func NewSessionPurgeJob(store userports.SessionStore, logger *slog.Logger) *SessionPurgeJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionPurgeJob{
		store:   store,
		cron:    cron.New(),
		logger:  logger.With("component", "session_purge_job"),
		now:     func() time.Time { return time.Now().UTC() },
		timeout: 30 * time.Second,
	}
}

// PurgeOnce removes every session that expired before now.
func (j *SessionPurgeJob) PurgeOnce(ctx context.Context) (int64, error) {
	if j == nil || j.store == nil {
		return 0, errors.New("session store not configured")
	}
	removed, err := j.store.PurgeExpired(ctx, j.now())
	if err != nil {
		return 0, err
	}
	j.logger.InfoContext(ctx, "expired sessions purged", slog.Int64("sessions.removed", removed))
	return removed, nil
}

// Start schedules PurgeOnce every interval.
func (j *SessionPurgeJob) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("purge interval must be positive, got %s", interval)
	}
	_, err := j.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		if _, err := j.PurgeOnce(ctx); err != nil {
			j.logger.ErrorContext(ctx, "session purge failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("session purge job started", slog.String("interval", interval.String()))
	return nil
}

// Stop halts the schedule and waits for a running purge to finish.
func (j *SessionPurgeJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("session purge job stopped")
}
