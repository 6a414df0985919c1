//go:build integration

package storage

import (
	"context"
	"testing"
	"time"
)

// Requires a Qdrant instance on localhost:6334; skipped otherwise. The
// collection is created with testDim-sized vectors, so run against a fresh
// instance.
func TestQdrantStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := NewQdrantStore(ctx, "localhost", 6334, testDim)
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}
	defer store.Close()

	runStoreContract(t, store)
}

func TestQdrantStore_ReplaceKeepsReusedIDs(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := NewQdrantStore(ctx, "localhost", 6334, testDim)
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}
	defer store.Close()

	doc := newTestDocument("replace")
	if err := store.CreateDocument(ctx, doc); err != nil {
		t.Fatalf("create document: %v", err)
	}

	first := newTestChunks(doc.ID, 3)
	if err := store.ReplaceChunks(ctx, doc.ID, first); err != nil {
		t.Fatalf("first replace: %v", err)
	}

	// Reuse the ID of the first chunk and drop the other two.
	second := newTestChunks(doc.ID, 1)
	second[0].ID = first[0].ID
	second[0].Content = "rewritten"
	if err := store.ReplaceChunks(ctx, doc.ID, second); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	got, err := store.ListChunks(ctx, ChunkFilter{DocumentIDs: []string{doc.ID}})
	if err != nil {
		t.Fatalf("list chunks: %v", err)
	}
	if len(got) != 1 || got[0].ID != first[0].ID || got[0].Content != "rewritten" {
		t.Fatalf("unexpected chunks after replace: %+v", got)
	}
}
