package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultBatchSize is the number of texts sent per embeddings request.
const DefaultBatchSize = 64

// ModelConfig configures a ModelBackend.
type ModelConfig struct {
	// BaseURL is an OpenAI-compatible API root such as
	// http://localhost:11434/v1 for Ollama.
	BaseURL    string
	APIKey     string
	Model      string
	Dimension  int
	BatchSize  int
	HTTPClient *http.Client
}

// ModelBackend embeds text with a sentence-embedding model behind an
// OpenAI-compatible embeddings endpoint.
type ModelBackend struct {
	client    openai.Client
	model     string
	dimension int
	batchSize int
}

// NewModelBackend creates a ModelBackend. Retries are handled here rather
// than by the SDK so that a failing call reaches the fallback quickly.
func NewModelBackend(cfg ModelConfig) *ModelBackend {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultDimension
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &ModelBackend{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		dimension: cfg.Dimension,
		batchSize: cfg.BatchSize,
	}
}

// Embed implements Backend.
func (m *ModelBackend) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch implements Backend. Texts are sent in batches of the configured
// size and every returned vector is checked against the configured dimension.
func (m *ModelBackend) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	all := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += m.batchSize {
		end := min(i+m.batchSize, len(texts))

		vectors, err := m.embedBatchWithRetry(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		all = append(all, vectors...)
	}

	return all, nil
}

// Mode implements Backend.
func (m *ModelBackend) Mode() Mode { return ModeModel }

// Info describes the model.
func (m *ModelBackend) Info() *ModelInfo {
	return &ModelInfo{
		Name:         m.model,
		Dimension:    m.dimension,
		MaxSeqLength: MaxTextLength,
	}
}

// embedBatchWithRetry embeds one batch, retrying with exponential backoff on
// rate limit errors (HTTP 429). Other errors fail immediately.
func (m *ModelBackend) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	operation := func() error {
		resp, err := m.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: openai.EmbeddingModel(m.model),
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Data) != len(texts) {
			return backoff.Permanent(fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)))
		}

		// Results carry their input position; order by it.
		vectors = make([][]float32, len(texts))
		for _, data := range resp.Data {
			idx := int(data.Index)
			if idx < 0 || idx >= len(texts) {
				return backoff.Permanent(fmt.Errorf("embedding index %d out of range", idx))
			}
			if len(data.Embedding) != m.dimension {
				return backoff.Permanent(fmt.Errorf("%w: got %d, want %d", ErrUnexpectedDimension, len(data.Embedding), m.dimension))
			}
			vectors[idx] = toFloat32(data.Embedding)
		}
		for i, v := range vectors {
			if v == nil {
				return backoff.Permanent(fmt.Errorf("missing embedding for input %d", i))
			}
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return vectors, err
}

// isRateLimitError checks if the error is a rate limit error (HTTP 429).
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// toFloat32 converts the API's float64 values to the float32 vectors used
// everywhere else.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
