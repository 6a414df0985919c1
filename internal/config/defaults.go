package config

import "time"

const (
	defaultChunkSize    = 500
	defaultChunkOverlap = 50

	// all-minilm is Ollama's build of all-MiniLM-L6-v2.
	defaultEmbeddingModel       = "all-minilm"
	defaultEmbeddingDimension   = 384
	defaultEmbeddingCacheDir    = "models"
	defaultEmbeddingAPIKey      = "ollama"
	defaultEmbeddingLoadTimeout = 30 * time.Second
	defaultEmbeddingBatchSize   = 64
	defaultOllamaBaseURL        = "http://localhost:11434"
	defaultLLMModel             = "llama3.2"

	defaultDatabaseURL = "postgres://localhost:5432/ocr_agent?sslmode=disable"
	defaultQdrantHost  = "localhost"
	defaultQdrantPort  = 6334

	defaultSearchTopK        = 5
	defaultContextTokenLimit = 1500

	defaultWorkers   = 2
	defaultQueueSize = 64

	defaultPort = "8080"
)

// Default returns a Config populated with defaults only.
func Default() *Config {
	return &Config{
		ChunkSize:    defaultChunkSize,
		ChunkOverlap: defaultChunkOverlap,

		EmbeddingModel:       defaultEmbeddingModel,
		EmbeddingDimension:   defaultEmbeddingDimension,
		EmbeddingCacheDir:    defaultEmbeddingCacheDir,
		EmbeddingBaseURL:     defaultOllamaBaseURL + "/v1",
		EmbeddingAPIKey:      defaultEmbeddingAPIKey,
		EmbeddingLoadTimeout: defaultEmbeddingLoadTimeout,
		EmbeddingBatchSize:   defaultEmbeddingBatchSize,
		OllamaBaseURL:        defaultOllamaBaseURL,
		LLMModel:             defaultLLMModel,

		StorageBackend: StorageMemory,
		DatabaseURL:    defaultDatabaseURL,
		QdrantHost:     defaultQdrantHost,
		QdrantPort:     defaultQdrantPort,

		SearchTopK:        defaultSearchTopK,
		ContextTokenLimit: defaultContextTokenLimit,

		Workers:   defaultWorkers,
		QueueSize: defaultQueueSize,

		Port: defaultPort,

		LogLevel:  "info",
		LogFormat: "text",
	}
}
