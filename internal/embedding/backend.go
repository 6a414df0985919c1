// Package embedding turns text into fixed-size vectors. A Service prefers a
// sentence-embedding model served over an OpenAI-compatible API and falls
// back to deterministic hash vectors when no model can be loaded.
package embedding

import "context"

// Mode names the backend a Service settled on.
type Mode string

const (
	// ModeModel embeds with a loaded sentence-embedding model.
	ModeModel Mode = "model"

	// ModeFallback embeds with FallbackVector.
	ModeFallback Mode = "fallback"
)

// Backend produces embeddings for preprocessed text.
type Backend interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Mode() Mode
}

// ModelInfo describes the loaded model.
type ModelInfo struct {
	Name         string `json:"model_name"`
	Dimension    int    `json:"embedding_dimension"`
	MaxSeqLength int    `json:"max_seq_length"`
}
