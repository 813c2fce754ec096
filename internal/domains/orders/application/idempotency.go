package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/application/types"
)

type normalizedPlaceOrderInput struct {
	BuyerID   string `json:"buyerId"`
	ListingID string `json:"listingId"`
}

// FingerprintPlaceOrder builds a deterministic hash of the placement request (excluding the idempotency key).
func FingerprintPlaceOrder(input types.PlaceOrderInput) (string, error) {
	payload, err := json.Marshal(normalizedPlaceOrderInput{
		BuyerID:   strings.TrimSpace(input.Caller.ID),
		ListingID: strings.TrimSpace(input.ListingID),
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
