// Package storage persists documents and their embedded chunks. Three
// backends implement Store: an in-process map, PostgreSQL and Qdrant.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ocragent/ocr-agent-pro/internal/config"
)

// Store is implemented by every backend.
type Store interface {
	CreateDocument(ctx context.Context, doc *Document) error
	UpdateDocument(ctx context.Context, doc *Document) error
	// GetDocument returns ErrDocumentNotFound for unknown IDs.
	GetDocument(ctx context.Context, id string) (*Document, error)
	// ListDocuments returns documents newest first.
	ListDocuments(ctx context.Context) ([]*Document, error)
	// ReplaceChunks deletes every chunk of the document and stores chunks
	// in their place. The memory and PostgreSQL backends swap the set
	// atomically. Qdrant writes the new set before deleting the old one, so
	// readers never see the document without chunks.
	ReplaceChunks(ctx context.Context, documentID string, chunks []*Chunk) error
	// ListChunks returns chunks with embeddings, ordered by document and
	// chunk index.
	ListChunks(ctx context.Context, filter ChunkFilter) ([]*Chunk, error)
	CountChunks(ctx context.Context) (int, error)
	Health(ctx context.Context) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend     string
	DatabaseURL string
	QdrantHost  string
	QdrantPort  int
	Dimension   int
}

// OptionsFromConfig maps cfg onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Backend:     cfg.StorageBackend,
		DatabaseURL: cfg.DatabaseURL,
		QdrantHost:  cfg.QdrantHost,
		QdrantPort:  cfg.QdrantPort,
		Dimension:   cfg.EmbeddingDimension,
	}
}

// Open connects to the configured backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Backend) {
	case "", config.StorageMemory:
		return NewMemoryStore(opts.Dimension), nil
	case config.StoragePostgres:
		return NewPostgresStore(ctx, opts.DatabaseURL, opts.Dimension)
	case config.StorageQdrant:
		return NewQdrantStore(ctx, opts.QdrantHost, opts.QdrantPort, opts.Dimension)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// CountByStatus tallies documents per status.
func CountByStatus(docs []*Document) DocumentCounts {
	counts := DocumentCounts{}
	for _, d := range docs {
		counts[d.Status]++
	}
	return counts
}

// validateChunks checks that chunks belong to documentID, carry contiguous
// indexes from 0 in order, and have embeddings of size dim.
func validateChunks(documentID string, chunks []*Chunk, dim int) error {
	for i, c := range chunks {
		if c.DocumentID != documentID {
			return fmt.Errorf("chunk %d belongs to document %q, not %q", i, c.DocumentID, documentID)
		}
		if c.Index != i {
			return fmt.Errorf("%w: position %d has index %d", ErrChunkOrder, i, c.Index)
		}
		if dim > 0 && len(c.Embedding) != dim {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(c.Embedding), dim)
		}
	}
	return nil
}

func sortChunks(chunks []*Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].DocumentID != chunks[j].DocumentID {
			return chunks[i].DocumentID < chunks[j].DocumentID
		}
		return chunks[i].Index < chunks[j].Index
	})
}

func sortDocuments(docs []*Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
}
