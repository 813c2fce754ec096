package notify

import (
	"encoding/json"
	"time"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
)

// Envelope is the wire shape published to message brokers.
type Envelope struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	Kind      string            `json:"kind"`
	OrderID   string            `json:"orderId"`
	Payload   map[string]string `json:"payload,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

func encode(n ports.Notification) ([]byte, error) {
	return json.Marshal(Envelope{
		ID:        n.ID,
		UserID:    n.UserID,
		Kind:      string(n.Kind),
		OrderID:   n.OrderID,
		Payload:   n.Payload,
		CreatedAt: n.CreatedAt,
	})
}
