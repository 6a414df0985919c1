//go:build integration

package storage

import (
	"context"
	"os"
	"testing"
)

// Requires OCR_AGENT_TEST_POSTGRES_DSN; skipped otherwise.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("OCR_AGENT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("OCR_AGENT_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}

	store, err := NewPostgresStore(context.Background(), dsn, testDim)
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	defer store.Close()

	runStoreContract(t, store)
}
