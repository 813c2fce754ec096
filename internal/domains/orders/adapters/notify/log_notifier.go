package notify

import (
	"context"
	"log/slog"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
)

// LogNotifier writes notifications to the structured log. Used when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, notification ports.Notification) error {
	attrs := []any{
		slog.String("notification_id", notification.ID),
		slog.String("kind", string(notification.Kind)),
		slog.String("user_id", notification.UserID),
		slog.String("order_id", notification.OrderID),
	}
	for k, v := range notification.Payload {
		attrs = append(attrs, slog.String(k, v))
	}
	n.logger.InfoContext(ctx, "notification", attrs...)
	return nil
}
