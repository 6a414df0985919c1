package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocragent/ocr-agent-pro/internal/chunking"
	"github.com/ocragent/ocr-agent-pro/internal/embedding"
	"github.com/ocragent/ocr-agent-pro/internal/indexer"
	"github.com/ocragent/ocr-agent-pro/internal/logging"
	"github.com/ocragent/ocr-agent-pro/internal/storage"
)

var corpus = map[string]string{
	"Biology":   "Mitochondria produce energy for the cell.",
	"Chemistry": "Acids donate protons when dissolved in water.",
	"History":   "The reunification of Cameroon took place in 1961.",
}

type fixture struct {
	service *Service
	store   *storage.MemoryStore
	ids     map[string]string
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	ctx := context.Background()

	store := storage.NewMemoryStore(embedding.DefaultDimension)
	embedder := embedding.NewService(nil, embedding.DefaultDimension, logging.Nop())
	pipeline := indexer.NewPipeline(store, chunking.New(500, 50), embedder, nil, logging.Nop())

	ids := make(map[string]string)
	for name, text := range corpus {
		res, err := pipeline.Ingest(ctx, indexer.IngestRequest{Name: name, Text: text})
		require.NoError(t, err)
		require.Equal(t, 1, res.Chunks)
		ids[name] = res.DocumentID
	}

	return &fixture{
		service: NewService(store, embedder, cfg, logging.Nop()),
		store:   store,
		ids:     ids,
	}
}

func TestSearch_ExactTextRanksFirst(t *testing.T) {
	f := newFixture(t, Config{})

	resp, err := f.service.Search(context.Background(), Query{Text: corpus["Chemistry"], TopK: 3})
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, 3, resp.Candidates)

	top := resp.Results[0]
	assert.Equal(t, "Chemistry", top.DocumentName)
	assert.Equal(t, f.ids["Chemistry"], top.DocumentID)
	assert.Equal(t, corpus["Chemistry"], top.Content)
	assert.InDelta(t, 1.0, top.Score, 1e-6)

	for i := 1; i < len(resp.Results); i++ {
		assert.LessOrEqual(t, resp.Results[i].Score, resp.Results[i-1].Score)
	}
}

func TestSearch_DefaultTopK(t *testing.T) {
	f := newFixture(t, Config{TopK: 2})

	resp, err := f.service.Search(context.Background(), Query{Text: "energy"})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
}

func TestSearch_MinScore(t *testing.T) {
	f := newFixture(t, Config{})

	resp, err := f.service.Search(context.Background(), Query{Text: corpus["History"], TopK: 3, MinScore: ptr(0.99)})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "History", resp.Results[0].DocumentName)
}

func TestSearch_MinScoreOverridesDefault(t *testing.T) {
	f := newFixture(t, Config{MinScore: 0.99})
	ctx := context.Background()

	resp, err := f.service.Search(ctx, Query{Text: corpus["History"], TopK: 3})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1, "configured floor applies when none is given")

	resp, err = f.service.Search(ctx, Query{Text: corpus["History"], TopK: 3, MinScore: ptr(-1.0)})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 3, "an explicit floor replaces the configured one")
}

func ptr[T any](v T) *T { return &v }

func TestSearch_DocumentFilter(t *testing.T) {
	f := newFixture(t, Config{})

	resp, err := f.service.Search(context.Background(), Query{
		Text:        corpus["History"],
		TopK:        5,
		DocumentIDs: []string{f.ids["Biology"]},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Biology", resp.Results[0].DocumentName)
	assert.Equal(t, 1, resp.Candidates)
}

func TestSearch_EmptyQuery(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := f.service.Search(context.Background(), Query{Text: "  "})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearch_EmptyIndex(t *testing.T) {
	store := storage.NewMemoryStore(embedding.DefaultDimension)
	embedder := embedding.NewService(nil, embedding.DefaultDimension, logging.Nop())
	svc := NewService(store, embedder, Config{}, logging.Nop())

	resp, err := svc.Search(context.Background(), Query{Text: "anything"})
	require.NoError(t, err)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
}

func TestContext(t *testing.T) {
	f := newFixture(t, Config{ContextTokenLimit: 100})

	block, resp, err := f.service.Context(context.Background(), Query{Text: corpus["Biology"], TopK: 1})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "CONTEXT\n[doc:Biology] "+corpus["Biology"], block.Text)
	assert.Equal(t, 1, block.SourceCoverage)
}

func TestStatus(t *testing.T) {
	f := newFixture(t, Config{})

	status, err := f.service.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalDocuments)
	assert.Equal(t, 3, status.Documents[storage.StatusCompleted])
	assert.Equal(t, 3, status.Chunks)
	assert.Equal(t, embedding.ModeFallback, status.EmbeddingMode)
	assert.Equal(t, embedding.DefaultDimension, status.Dimension)
	assert.Nil(t, status.Model)
}
