package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, "all-minilm", cfg.EmbeddingModel)
	assert.Equal(t, 384, cfg.EmbeddingDimension)
	assert.Equal(t, 30*time.Second, cfg.EmbeddingLoadTimeout)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingBaseURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "800")
	t.Setenv("CHUNK_OVERLAP", "80")
	t.Setenv("EMBEDDING_MODEL", "nomic-embed-text")
	t.Setenv("EMBEDDING_LOAD_TIMEOUT", "5s")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434/")
	t.Setenv("STORAGE_BACKEND", "Postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.ChunkSize)
	assert.Equal(t, 80, cfg.ChunkOverlap)
	assert.Equal(t, "nomic-embed-text", cfg.EmbeddingModel)
	assert.Equal(t, 5*time.Second, cfg.EmbeddingLoadTimeout)
	assert.Equal(t, "http://ollama:11434", cfg.OllamaBaseURL)
	assert.Equal(t, "http://ollama:11434/v1", cfg.EmbeddingBaseURL)
	assert.Equal(t, StoragePostgres, cfg.StorageBackend)
}

func TestLoad_ExplicitEmbeddingBaseURL(t *testing.T) {
	t.Setenv("EMBEDDING_BASE_URL", "http://embeddings.internal/v1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://embeddings.internal/v1", cfg.EmbeddingBaseURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, "CHUNK_SIZE"},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }, "CHUNK_OVERLAP must be zero"},
		{"overlap too large", func(c *Config) { c.ChunkOverlap = 500 }, "must be smaller"},
		{"zero dimension", func(c *Config) { c.EmbeddingDimension = 0 }, "EMBEDDING_DIMENSION"},
		{"empty model", func(c *Config) { c.EmbeddingModel = "" }, "EMBEDDING_MODEL"},
		{"unknown backend", func(c *Config) { c.StorageBackend = "redis" }, "STORAGE_BACKEND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryInvalidSetting(t *testing.T) {
	cfg := Default()
	cfg.ChunkSize = 0
	cfg.EmbeddingModel = ""
	cfg.StorageBackend = "redis"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHUNK_SIZE")
	assert.Contains(t, err.Error(), "EMBEDDING_MODEL")
	assert.Contains(t, err.Error(), "STORAGE_BACKEND")
}
