package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps everything in process. Values are copied in and out so
// callers never share state with the store.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	docs      map[string]*Document
	chunks    map[string][]*Chunk
}

// NewMemoryStore creates an empty MemoryStore. A dimension of zero disables
// the embedding size check.
func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{
		dimension: dimension,
		docs:      make(map[string]*Document),
		chunks:    make(map[string][]*Chunk),
	}
}

// CreateDocument implements Store.
func (m *MemoryStore) CreateDocument(_ context.Context, doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[doc.ID]; ok {
		return fmt.Errorf("document %s already exists", doc.ID)
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	m.docs[doc.ID] = copyDocument(doc)
	return nil
}

// UpdateDocument implements Store.
func (m *MemoryStore) UpdateDocument(_ context.Context, doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.docs[doc.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, doc.ID)
	}
	doc.CreatedAt = existing.CreatedAt
	doc.UpdatedAt = time.Now().UTC()
	m.docs[doc.ID] = copyDocument(doc)
	return nil
}

// GetDocument implements Store.
func (m *MemoryStore) GetDocument(_ context.Context, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return copyDocument(doc), nil
}

// ListDocuments implements Store.
func (m *MemoryStore) ListDocuments(_ context.Context) ([]*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]*Document, 0, len(m.docs))
	for _, d := range m.docs {
		docs = append(docs, copyDocument(d))
	}
	sortDocuments(docs)
	return docs, nil
}

// ReplaceChunks implements Store. The swap happens under one lock, so
// readers see either the old or the new set.
func (m *MemoryStore) ReplaceChunks(_ context.Context, documentID string, chunks []*Chunk) error {
	if err := validateChunks(documentID, chunks, m.dimension); err != nil {
		return err
	}

	stored := make([]*Chunk, len(chunks))
	for i, c := range chunks {
		stored[i] = copyChunk(c)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[documentID]; !ok {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
	}
	if len(stored) == 0 {
		delete(m.chunks, documentID)
		return nil
	}
	m.chunks[documentID] = stored
	return nil
}

// ListChunks implements Store.
func (m *MemoryStore) ListChunks(_ context.Context, filter ChunkFilter) ([]*Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := filter.DocumentIDs
	if len(ids) == 0 {
		ids = slices.Collect(maps.Keys(m.chunks))
	}

	var out []*Chunk
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		for _, c := range m.chunks[id] {
			out = append(out, copyChunk(c))
		}
	}
	sortChunks(out)
	return out, nil
}

// CountChunks implements Store.
func (m *MemoryStore) CountChunks(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for _, cs := range m.chunks {
		total += len(cs)
	}
	return total, nil
}

// Health implements Store.
func (m *MemoryStore) Health(context.Context) error { return nil }

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }

func copyDocument(d *Document) *Document {
	c := *d
	c.Headings = slices.Clone(d.Headings)
	return &c
}

func copyChunk(c *Chunk) *Chunk {
	out := *c
	out.Embedding = slices.Clone(c.Embedding)
	out.Metadata = maps.Clone(c.Metadata)
	if c.StartChar != nil {
		v := *c.StartChar
		out.StartChar = &v
	}
	if c.EndChar != nil {
		v := *c.EndChar
		out.EndChar = &v
	}
	return &out
}
