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
	ProviderName = "pos-api"
	ConsumerName = "pos-terminal"

	StateCatalogStocked = "catalog stocked with notebooks and one pen"
	StateOrderMissing   = "no order with id 404"
)

const (
	NotebookID    int64 = 1
	NotebookName        = "Notebook"
	NotebookPrice       = "100.00"
	NotebookStock       = 10

	PenID    int64 = 2
	PenName        = "Pen"
	PenPrice       = "2.50"
	PenStock       = 1

	MissingOrderID int64 = 404

	CashierID = "pact-cashier"
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

// PactFile returns the canonical pact file path for the terminal consumer.
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

// ExampleCheckoutPayload sells three notebooks at a 10% discount.
func ExampleCheckoutPayload() map[string]any {
	return map[string]any{
		"cart_items":       []map[string]any{{"product_id": NotebookID, "quantity": 3}},
		"discount_percent": "10",
	}
}

// ExampleShortagePayload asks for more pens than are stocked.
func ExampleShortagePayload() map[string]any {
	return map[string]any{
		"cart_items": []map[string]any{{"product_id": PenID, "quantity": PenStock + 1}},
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
