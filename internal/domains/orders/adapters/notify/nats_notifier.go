package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
)

const subjectPrefix = "notifications."

type natsPublisher interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
}

// NATSNotifier publishes each notification on notifications.<userID>.
type NATSNotifier struct {
	conn     natsPublisher
	logger   *slog.Logger
	attempts int
	backoff  time.Duration
}

func NewNATSNotifier(conn natsPublisher, logger *slog.Logger) *NATSNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSNotifier{conn: conn, logger: logger, attempts: 3, backoff: 500 * time.Millisecond}
}

// ConnectNATS dials the server with reconnect handlers that log through slog.
func ConnectNATS(url string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url,
		nats.Name("marketplace-api"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return conn, nil
}

func (n *NATSNotifier) Notify(ctx context.Context, notification ports.Notification) error {
	data, err := encode(notification)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	subject := subjectPrefix + notification.UserID

	var lastErr error
	for attempt := 1; attempt <= n.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = n.conn.Publish(subject, data); lastErr == nil {
			if lastErr = n.conn.FlushTimeout(2 * time.Second); lastErr == nil {
				return nil
			}
		}
		n.logger.Warn("nats publish failed",
			slog.Int("attempt", attempt),
			slog.String("subject", subject),
			slog.String("error", lastErr.Error()),
		)
		if attempt < n.attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.backoff):
			}
		}
	}
	return fmt.Errorf("nats publish to %s: %w", subject, lastErr)
}
