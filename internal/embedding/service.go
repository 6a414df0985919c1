package embedding

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ocragent/ocr-agent-pro/internal/config"
)

// Service is the shared embedder. The first call to Init (or any embedding
// call) decides once between the model and the fallback; the decision is
// never revisited. A Service is safe for concurrent use.
type Service struct {
	loader    BackendLoader
	dimension int
	fallback  *FallbackBackend
	logger    *slog.Logger

	once    sync.Once
	backend Backend
	info    *ModelInfo
}

// NewService creates a Service. A nil loader means fallback mode.
func NewService(loader BackendLoader, dimension int, logger *slog.Logger) *Service {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		loader:    loader,
		dimension: dimension,
		fallback:  NewFallbackBackend(dimension),
		logger:    logger,
	}
}

// NewServiceFromConfig wires a Loader from cfg.
func NewServiceFromConfig(cfg *config.Config, logger *slog.Logger) *Service {
	loader := NewLoader(LoaderConfig{
		Model:     cfg.EmbeddingModel,
		Dimension: cfg.EmbeddingDimension,
		BatchSize: cfg.EmbeddingBatchSize,
		CacheDir:  cfg.EmbeddingCacheDir,
		BaseURL:   cfg.EmbeddingBaseURL,
		APIKey:    cfg.EmbeddingAPIKey,
		OllamaURL: cfg.OllamaBaseURL,
		Timeout:   cfg.EmbeddingLoadTimeout,
	}, logger)
	return NewService(loader, cfg.EmbeddingDimension, logger)
}

// Init loads the backend. Concurrent callers block until the first one has
// decided. Load failures are logged and leave the service in fallback mode.
func (s *Service) Init(ctx context.Context) {
	s.once.Do(func() {
		s.backend = s.fallback
		if s.loader == nil {
			s.logger.Warn("no embedding model configured, using fallback embeddings")
			return
		}

		backend, err := s.loader.Load(ctx)
		if err != nil {
			s.logger.Warn("embedding model unavailable, using fallback embeddings", "error", err)
			return
		}
		s.backend = backend

		if m, ok := backend.(interface{ Info() *ModelInfo }); ok {
			s.info = m.Info()
		} else {
			s.info = &ModelInfo{Dimension: s.dimension, MaxSeqLength: MaxTextLength}
		}
	})
}

// Embed returns the vector for text. Model failures fall back to
// FallbackVector for this call only.
func (s *Service) Embed(ctx context.Context, text string) []float32 {
	s.Init(ctx)

	cleaned := Preprocess(text)
	if s.backend.Mode() == ModeFallback {
		return s.fallback.vector(cleaned)
	}

	vec, err := s.backend.Embed(ctx, cleaned)
	if err == nil && len(vec) != s.dimension {
		err = ErrUnexpectedDimension
	}
	if err != nil {
		s.logger.Warn("model embedding failed, using fallback for this call", "error", err)
		return s.fallback.vector(cleaned)
	}
	return vec
}

// EmbedBatch embeds texts in one model call per batch. When the model call
// fails every item falls back individually.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) [][]float32 {
	s.Init(ctx)

	cleaned := make([]string, len(texts))
	for i, t := range texts {
		cleaned[i] = Preprocess(t)
	}

	if s.backend.Mode() != ModeFallback && len(texts) > 0 {
		vectors, err := s.backend.EmbedBatch(ctx, cleaned)
		if err == nil && len(vectors) != len(texts) {
			err = ErrUnexpectedDimension
		}
		if err == nil {
			for _, v := range vectors {
				if len(v) != s.dimension {
					err = ErrUnexpectedDimension
					break
				}
			}
		}
		if err == nil {
			return vectors
		}
		s.logger.Warn("batch embedding failed, using fallback for batch", "count", len(texts), "error", err)
	}

	out := make([][]float32, len(cleaned))
	for i, t := range cleaned {
		out[i] = s.fallback.vector(t)
	}
	return out
}

// ModelInfo describes the loaded model, or returns nil in fallback mode.
func (s *Service) ModelInfo() *ModelInfo {
	s.Init(context.Background())
	if s.info == nil {
		return nil
	}
	info := *s.info
	return &info
}

// Mode reports the backend in use.
func (s *Service) Mode() Mode {
	s.Init(context.Background())
	return s.backend.Mode()
}

// Dimension returns the vector size every call produces.
func (s *Service) Dimension() int {
	return s.dimension
}
