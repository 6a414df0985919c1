// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageQdrant   = "qdrant"
)

// Config holds every setting used by the binaries.
type Config struct {
	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Embedding
	EmbeddingModel       string
	EmbeddingDimension   int
	EmbeddingCacheDir    string
	EmbeddingBaseURL     string
	EmbeddingAPIKey      string
	EmbeddingLoadTimeout time.Duration
	EmbeddingBatchSize   int
	OllamaBaseURL        string

	// LLMModel is the chat model used for document classification.
	// An empty value disables classification.
	LLMModel string

	// Storage
	StorageBackend string
	DatabaseURL    string
	QdrantHost     string
	QdrantPort     int

	// Search
	SearchTopK        int
	SearchMinScore    float64
	ContextTokenLimit int

	// Ingestion pool
	Workers   int
	QueueSize int

	// Server
	Port       string
	ServerMode bool

	// Logging
	LogLevel  string
	LogFormat string

	// GitHub document source
	GitHubToken string
	GitHubOwner string
	GitHubRepo  string
	GitHubPath  string
}

// Load reads an optional .env file, applies defaults and environment
// overrides, and validates the result.
func Load() (*Config, error) {
	// .env is optional (local development only)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("CHUNK_SIZE", d.ChunkSize)
	v.SetDefault("CHUNK_OVERLAP", d.ChunkOverlap)

	v.SetDefault("EMBEDDING_MODEL", d.EmbeddingModel)
	v.SetDefault("EMBEDDING_DIMENSION", d.EmbeddingDimension)
	v.SetDefault("EMBEDDING_CACHE_DIR", d.EmbeddingCacheDir)
	v.SetDefault("EMBEDDING_BASE_URL", "")
	v.SetDefault("EMBEDDING_API_KEY", d.EmbeddingAPIKey)
	v.SetDefault("EMBEDDING_LOAD_TIMEOUT", d.EmbeddingLoadTimeout)
	v.SetDefault("EMBEDDING_BATCH_SIZE", d.EmbeddingBatchSize)
	v.SetDefault("OLLAMA_BASE_URL", d.OllamaBaseURL)
	v.SetDefault("LLM_MODEL", d.LLMModel)

	v.SetDefault("STORAGE_BACKEND", d.StorageBackend)
	v.SetDefault("DATABASE_URL", d.DatabaseURL)
	v.SetDefault("QDRANT_HOST", d.QdrantHost)
	v.SetDefault("QDRANT_PORT", d.QdrantPort)

	v.SetDefault("SEARCH_TOP_K", d.SearchTopK)
	v.SetDefault("SEARCH_MIN_SCORE", d.SearchMinScore)
	v.SetDefault("CONTEXT_TOKEN_LIMIT", d.ContextTokenLimit)

	v.SetDefault("WORKERS", d.Workers)
	v.SetDefault("QUEUE_SIZE", d.QueueSize)

	v.SetDefault("PORT", d.Port)
	v.SetDefault("SERVER_MODE", d.ServerMode)

	v.SetDefault("LOG_LEVEL", d.LogLevel)
	v.SetDefault("LOG_FORMAT", d.LogFormat)

	v.SetDefault("GITHUB_TOKEN", "")
	v.SetDefault("GITHUB_OWNER", d.GitHubOwner)
	v.SetDefault("GITHUB_REPO", d.GitHubRepo)
	v.SetDefault("GITHUB_PATH", d.GitHubPath)
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		ChunkSize:    v.GetInt("CHUNK_SIZE"),
		ChunkOverlap: v.GetInt("CHUNK_OVERLAP"),

		EmbeddingModel:       strings.TrimSpace(v.GetString("EMBEDDING_MODEL")),
		EmbeddingDimension:   v.GetInt("EMBEDDING_DIMENSION"),
		EmbeddingCacheDir:    v.GetString("EMBEDDING_CACHE_DIR"),
		EmbeddingBaseURL:     strings.TrimSpace(v.GetString("EMBEDDING_BASE_URL")),
		EmbeddingAPIKey:      v.GetString("EMBEDDING_API_KEY"),
		EmbeddingLoadTimeout: v.GetDuration("EMBEDDING_LOAD_TIMEOUT"),
		EmbeddingBatchSize:   v.GetInt("EMBEDDING_BATCH_SIZE"),
		OllamaBaseURL:        strings.TrimRight(v.GetString("OLLAMA_BASE_URL"), "/"),
		LLMModel:             strings.TrimSpace(v.GetString("LLM_MODEL")),

		StorageBackend: strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_BACKEND"))),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		QdrantHost:     v.GetString("QDRANT_HOST"),
		QdrantPort:     v.GetInt("QDRANT_PORT"),

		SearchTopK:        v.GetInt("SEARCH_TOP_K"),
		SearchMinScore:    v.GetFloat64("SEARCH_MIN_SCORE"),
		ContextTokenLimit: v.GetInt("CONTEXT_TOKEN_LIMIT"),

		Workers:   v.GetInt("WORKERS"),
		QueueSize: v.GetInt("QUEUE_SIZE"),

		Port:       v.GetString("PORT"),
		ServerMode: v.GetBool("SERVER_MODE"),

		LogLevel:  strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat: strings.ToLower(v.GetString("LOG_FORMAT")),

		GitHubToken: v.GetString("GITHUB_TOKEN"),
		GitHubOwner: v.GetString("GITHUB_OWNER"),
		GitHubRepo:  v.GetString("GITHUB_REPO"),
		GitHubPath:  v.GetString("GITHUB_PATH"),
	}

	if cfg.EmbeddingBaseURL == "" {
		cfg.EmbeddingBaseURL = cfg.OllamaBaseURL + "/v1"
	}
	return cfg
}

// Validate reports every invalid setting, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("CHUNK_SIZE must be greater than zero, got %d", c.ChunkSize))
	}
	if c.ChunkOverlap < 0 {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP must be zero or greater, got %d", c.ChunkOverlap))
	}
	if c.ChunkSize > 0 && c.ChunkOverlap >= c.ChunkSize {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", c.ChunkOverlap, c.ChunkSize))
	}
	if c.EmbeddingDimension <= 0 {
		errs = append(errs, fmt.Errorf("EMBEDDING_DIMENSION must be greater than zero, got %d", c.EmbeddingDimension))
	}
	if c.EmbeddingModel == "" {
		errs = append(errs, errors.New("EMBEDDING_MODEL is required"))
	}
	switch c.StorageBackend {
	case StorageMemory, StoragePostgres, StorageQdrant:
	default:
		errs = append(errs, fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return "0.0.0.0:" + c.Port
}
