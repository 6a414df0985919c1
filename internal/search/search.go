// Package search answers queries over stored chunks and reports index status.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ocragent/ocr-agent-pro/internal/embedding"
	"github.com/ocragent/ocr-agent-pro/internal/retrieval"
	"github.com/ocragent/ocr-agent-pro/internal/storage"
)

// DefaultTopK is used when neither the query nor the service sets K.
const DefaultTopK = 5

// ErrEmptyQuery is returned for blank query text.
var ErrEmptyQuery = errors.New("query is empty")

// Embedder is the query-side view of *embedding.Service.
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
	Mode() embedding.Mode
	ModelInfo() *embedding.ModelInfo
	Dimension() int
}

// Config holds search defaults.
type Config struct {
	TopK              int
	MinScore          float64
	ContextTokenLimit int
}

// Query is one search request. A zero TopK or a nil MinScore selects the
// service default; DocumentIDs restricts the scan to those documents.
type Query struct {
	Text        string
	TopK        int
	MinScore    *float64
	DocumentIDs []string
}

// Result is a ranked chunk with its document name.
type Result struct {
	ChunkID      string            `json:"chunk_id"`
	DocumentID   string            `json:"document_id"`
	DocumentName string            `json:"document_name"`
	Index        int               `json:"chunk_index"`
	Content      string            `json:"content"`
	Score        float64           `json:"score"`
	StartChar    *int              `json:"start_char,omitempty"`
	EndChar      *int              `json:"end_char,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Response carries results and retrieval telemetry.
type Response struct {
	Query       string   `json:"query"`
	Results     []Result `json:"results"`
	Candidates  int      `json:"candidates"`
	RetrievalMs int      `json:"retrieval_ms"`
}

// Status summarizes the index.
type Status struct {
	Documents      storage.DocumentCounts `json:"documents"`
	TotalDocuments int                    `json:"total_documents"`
	Chunks         int                    `json:"chunks"`
	EmbeddingMode  embedding.Mode         `json:"embedding_mode"`
	Dimension      int                    `json:"embedding_dimension"`
	Model          *embedding.ModelInfo   `json:"model,omitempty"`
}

// Service runs searches against a Store.
type Service struct {
	store    storage.Store
	embedder Embedder
	config   Config
	logger   *slog.Logger
}

// NewService creates a Service.
func NewService(store storage.Store, embedder Embedder, cfg Config, logger *slog.Logger) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		embedder: embedder,
		config:   cfg,
		logger:   logger,
	}
}

// Search embeds the query and ranks every candidate chunk by cosine
// similarity, dropping results below the score floor.
func (s *Service) Search(ctx context.Context, q Query) (*Response, error) {
	start := time.Now()

	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, ErrEmptyQuery
	}
	topK := q.TopK
	if topK <= 0 {
		topK = s.config.TopK
	}
	minScore := s.config.MinScore
	if q.MinScore != nil {
		minScore = *q.MinScore
	}

	// 1. Embed query
	queryVec := s.embedder.Embed(ctx, text)

	// 2. Load candidates
	chunks, err := s.store.ListChunks(ctx, storage.ChunkFilter{DocumentIDs: q.DocumentIDs})
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	candidates := make([]retrieval.Candidate, len(chunks))
	for i, c := range chunks {
		candidates[i] = retrieval.Candidate{ID: c.ID, Vector: c.Embedding}
	}

	// 3. Rank
	ranked := retrieval.TopK(queryVec, candidates, topK)

	// 4. Hydrate
	names := make(map[string]string)
	results := make([]Result, 0, len(ranked))
	for _, r := range ranked {
		if r.Score < minScore {
			continue
		}
		c := chunks[r.Index]
		name, ok := names[c.DocumentID]
		if !ok {
			name = s.documentName(ctx, c.DocumentID)
			names[c.DocumentID] = name
		}
		results = append(results, Result{
			ChunkID:      c.ID,
			DocumentID:   c.DocumentID,
			DocumentName: name,
			Index:        c.Index,
			Content:      c.Content,
			Score:        r.Score,
			StartChar:    c.StartChar,
			EndChar:      c.EndChar,
			Metadata:     c.Metadata,
		})
	}

	resp := &Response{
		Query:       text,
		Results:     results,
		Candidates:  len(chunks),
		RetrievalMs: int(time.Since(start) / time.Millisecond),
	}
	s.logger.Debug("Search complete",
		"query", text,
		"candidates", resp.Candidates,
		"results", len(results),
		"retrieval_ms", resp.RetrievalMs,
	)
	return resp, nil
}

func (s *Service) documentName(ctx context.Context, id string) string {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		s.logger.Warn("Failed to load document for result", "id", id, "error", err)
		return id
	}
	return doc.Name
}

// Context searches and formats the results as a CONTEXT block limited to
// the configured token budget.
func (s *Service) Context(ctx context.Context, q Query) (retrieval.Context, *Response, error) {
	resp, err := s.Search(ctx, q)
	if err != nil {
		return retrieval.Context{}, nil, err
	}
	hits := make([]retrieval.Hit, len(resp.Results))
	for i, r := range resp.Results {
		hits[i] = retrieval.Hit{Source: r.DocumentName, Text: r.Content, Score: r.Score}
	}
	return retrieval.FormatContext(hits, s.config.ContextTokenLimit), resp, nil
}

// Status counts documents by processing status and reports the embedder
// state.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	chunks, err := s.store.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	return &Status{
		Documents:      storage.CountByStatus(docs),
		TotalDocuments: len(docs),
		Chunks:         chunks,
		EmbeddingMode:  s.embedder.Mode(),
		Dimension:      s.embedder.Dimension(),
		Model:          s.embedder.ModelInfo(),
	}, nil
}
