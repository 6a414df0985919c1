package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ocragent/ocr-agent-pro/internal/embedding"
)

// HealthResponse represents the JSON response from the health check endpoint.
type HealthResponse struct {
	Status    string         `json:"status"`
	Storage   string         `json:"storage"`
	Embedding embedding.Mode `json:"embedding"`
	Timestamp string         `json:"timestamp"`
}

// HealthChecker is implemented by every storage backend.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ModeReporter reports the embedding backend in use.
type ModeReporter interface {
	Mode() embedding.Mode
}

// NewHealthHandler creates an HTTP handler for the /health endpoint.
// Storage failures return 503; fallback embeddings are reported but still
// healthy.
func NewHealthHandler(store HealthChecker, embedder ModeReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		err := store.Health(ctx)

		response := HealthResponse{
			Embedding: embedder.Mode(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		w.Header().Set("Content-Type", "application/json")

		if err != nil {
			response.Status = "unhealthy"
			response.Storage = "disconnected"
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(response)
			return
		}

		response.Status = "healthy"
		response.Storage = "connected"
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}
