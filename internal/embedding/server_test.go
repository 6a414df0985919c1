package embedding

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// fakeOllama serves the OpenAI-compatible embeddings route and the Ollama
// pull route.
type fakeOllama struct {
	dim           int
	embedStatus   atomic.Int32
	pullStatus    atomic.Int32
	embedCalls    atomic.Int32
	pullCalls     atomic.Int32
	reverseOutput bool
}

func newFakeOllama(t *testing.T, dim int) (*fakeOllama, *httptest.Server) {
	t.Helper()
	f := &fakeOllama{dim: dim}
	f.embedStatus.Store(http.StatusOK)
	f.pullStatus.Store(http.StatusOK)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/embeddings", f.handleEmbeddings)
	mux.HandleFunc("/api/pull", f.handlePull)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeOllama) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	f.embedCalls.Add(1)
	if status := int(f.embedStatus.Load()); status != http.StatusOK {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"model not found","type":"api_error"}}`))
		return
	}

	var req struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data := make([]map[string]any, len(req.Input))
	for i, text := range req.Input {
		vec := make([]float64, f.dim)
		for j := range vec {
			vec[j] = float64(len(text)+j) / 1000
		}
		pos := i
		if f.reverseOutput {
			pos = len(req.Input) - 1 - i
		}
		data[pos] = map[string]any{"object": "embedding", "index": i, "embedding": vec}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data":   data,
		"model":  req.Model,
		"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
	})
}

func (f *fakeOllama) handlePull(w http.ResponseWriter, r *http.Request) {
	f.pullCalls.Add(1)
	w.Header().Set("Content-Type", "application/json")
	if status := int(f.pullStatus.Load()); status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"pull failed"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"success"}`))
}

// expectedVector mirrors the fake server's output.
func expectedVector(text string, dim int) []float32 {
	vec := make([]float32, dim)
	for j := range vec {
		vec[j] = float32(float64(len(text)+j) / 1000)
	}
	return vec
}
