// Package app wires configuration into the services shared by the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ocragent/ocr-agent-pro/internal/chunking"
	"github.com/ocragent/ocr-agent-pro/internal/config"
	"github.com/ocragent/ocr-agent-pro/internal/embedding"
	ghclient "github.com/ocragent/ocr-agent-pro/internal/github"
	"github.com/ocragent/ocr-agent-pro/internal/indexer"
	"github.com/ocragent/ocr-agent-pro/internal/metadata"
	"github.com/ocragent/ocr-agent-pro/internal/search"
	"github.com/ocragent/ocr-agent-pro/internal/storage"
)

// App holds the wired services.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    storage.Store
	Embedder *embedding.Service
	Chunker  *chunking.Chunker
	Pipeline *indexer.Pipeline
	Search   *search.Service
}

// New opens the configured store and builds the services on top of it.
// The embedding model is loaded lazily on first use.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.Open(ctx, storage.OptionsFromConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.StorageBackend, err)
	}

	embedder := embedding.NewServiceFromConfig(cfg, logger.With("component", "embedding"))
	chunker := chunking.New(cfg.ChunkSize, cfg.ChunkOverlap)

	var classifier indexer.Classifier
	if cfg.LLMModel != "" {
		classifier = metadata.NewClassifier(metadata.Config{
			BaseURL: cfg.OllamaBaseURL + "/v1",
			APIKey:  cfg.EmbeddingAPIKey,
			Model:   cfg.LLMModel,
		}, logger.With("component", "classifier"))
	}

	pipeline := indexer.NewPipeline(store, chunker, embedder, classifier, logger.With("component", "indexer"))
	searcher := search.NewService(store, embedder, search.Config{
		TopK:              cfg.SearchTopK,
		MinScore:          cfg.SearchMinScore,
		ContextTokenLimit: cfg.ContextTokenLimit,
	}, logger.With("component", "search"))

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Embedder: embedder,
		Chunker:  chunker,
		Pipeline: pipeline,
		Search:   searcher,
	}, nil
}

// NewPool starts a background ingestion pool sized from the config.
func (a *App) NewPool() *indexer.Pool {
	return indexer.NewPool(a.Pipeline, indexer.PoolConfig{
		Workers:   a.Config.Workers,
		QueueSize: a.Config.QueueSize,
	}, a.Logger.With("component", "pool"))
}

// NewFetcher builds the GitHub document source from the config.
func (a *App) NewFetcher() (*ghclient.Fetcher, error) {
	if a.Config.GitHubOwner == "" || a.Config.GitHubRepo == "" {
		return nil, fmt.Errorf("GITHUB_OWNER and GITHUB_REPO are required to sync")
	}
	client, err := ghclient.NewClient(a.Config.GitHubToken)
	if err != nil {
		return nil, fmt.Errorf("create GitHub client: %w", err)
	}
	return ghclient.NewFetcher(client, a.Config.GitHubOwner, a.Config.GitHubRepo, a.Config.GitHubPath), nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}
