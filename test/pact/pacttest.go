//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "marketplace-api"
	ConsumerName = "order-portal"

	StateOrderPending   = "order order-301 is pending"
	StateOrderDelivered = "order order-301 is delivered"
	StateOrderMissing   = "no order with id order-999"
)

const (
	ExistingOrderID = "order-301"
	MissingOrderID  = "order-999"
	ListingID       = "listing-1"
	BuyerID         = "buyer-1"
	SellerID        = "seller-1"

	// Fixed bearer tokens the provider resolves without a signing key.
	BuyerToken  = "pact-buyer-token"
	SellerToken = "pact-seller-token"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the pact file written by the order portal consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
