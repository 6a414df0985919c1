package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultLoadTimeout bounds the download step.
const DefaultLoadTimeout = 30 * time.Second

const probeText = "dimension probe"

// BackendLoader decides which Backend a Service uses.
type BackendLoader interface {
	Load(ctx context.Context) (Backend, error)
}

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	Model     string
	Dimension int
	BatchSize int

	// CacheDir holds one manifest per successfully loaded model.
	CacheDir string

	// BaseURL and APIKey address the OpenAI-compatible embeddings endpoint.
	BaseURL string
	APIKey  string

	// OllamaURL is the Ollama API root used to pull missing models.
	// When empty the download step only probes BaseURL.
	OllamaURL string

	// Timeout bounds the download step. Defaults to DefaultLoadTimeout.
	Timeout time.Duration

	HTTPClient *http.Client
}

// Manifest is written to the cache directory after a model loads.
type Manifest struct {
	Model     string    `json:"model"`
	Dimension int       `json:"dimension"`
	BaseURL   string    `json:"base_url"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// Loader tries the cached model first, then pulls it fresh.
type Loader struct {
	cfg    LoaderConfig
	http   *http.Client
	logger *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(cfg LoaderConfig, logger *slog.Logger) *Loader {
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultDimension
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLoadTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Loader{cfg: cfg, http: httpClient, logger: logger}
}

// Load returns a model backend, or a *LoadError when neither the cache nor
// the download step produced a working model.
func (l *Loader) Load(ctx context.Context) (Backend, error) {
	if l.cfg.Model == "" {
		return nil, &LoadError{Model: l.cfg.Model, Cache: errors.New("no model configured")}
	}

	backend := NewModelBackend(ModelConfig{
		BaseURL:    l.cfg.BaseURL,
		APIKey:     l.cfg.APIKey,
		Model:      l.cfg.Model,
		Dimension:  l.cfg.Dimension,
		BatchSize:  l.cfg.BatchSize,
		HTTPClient: l.cfg.HTTPClient,
	})

	// 1. Local cache
	cacheErr := l.loadCached(ctx, backend)
	if cacheErr == nil {
		l.logger.Info("loaded embedding model from cache", "model", l.cfg.Model)
		return backend, nil
	}
	l.logger.Debug("cached embedding model unavailable", "model", l.cfg.Model, "error", cacheErr)

	// 2. Fresh download, bounded by the load timeout
	downloadErr := l.download(ctx, backend)
	if downloadErr == nil {
		if err := l.writeManifest(); err != nil {
			l.logger.Warn("failed to write model manifest", "model", l.cfg.Model, "error", err)
		}
		l.logger.Info("loaded embedding model", "model", l.cfg.Model)
		return backend, nil
	}

	return nil, &LoadError{Model: l.cfg.Model, Cache: cacheErr, Download: downloadErr}
}

// ManifestPath returns where the manifest for the configured model lives.
func (l *Loader) ManifestPath() string {
	name := strings.NewReplacer("/", "_", ":", "_").Replace(l.cfg.Model)
	return filepath.Join(l.cfg.CacheDir, name+".json")
}

func (l *Loader) loadCached(ctx context.Context, backend *ModelBackend) error {
	if l.cfg.CacheDir == "" {
		return errors.New("no cache directory configured")
	}

	data, err := os.ReadFile(l.ManifestPath())
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	if m.Model != l.cfg.Model {
		return fmt.Errorf("manifest is for model %q", m.Model)
	}
	if m.Dimension != l.cfg.Dimension {
		return fmt.Errorf("%w: manifest records %d, want %d", ErrUnexpectedDimension, m.Dimension, l.cfg.Dimension)
	}

	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()
	return probe(ctx, backend, l.cfg.Dimension)
}

func (l *Loader) download(ctx context.Context, backend *ModelBackend) error {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	if l.cfg.OllamaURL != "" {
		if err := l.pull(ctx); err != nil {
			return fmt.Errorf("pull model: %w", err)
		}
	}

	// The endpoint may need a moment before a freshly pulled model answers.
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = l.cfg.Timeout

	operation := func() error {
		err := probe(ctx, backend, l.cfg.Dimension)
		if errors.Is(err, ErrUnexpectedDimension) {
			return backoff.Permanent(err)
		}
		return err
	}
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("probe model: %w", err)
	}
	return nil
}

type pullRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

type pullResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// pull asks Ollama to download the model and waits for completion.
func (l *Loader) pull(ctx context.Context) error {
	body, err := json.Marshal(pullRequest{Model: l.cfg.Model, Stream: false})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(l.cfg.OllamaURL, "/") + "/api/pull"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var pr pullResponse
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if pr.Error != "" {
		return errors.New(pr.Error)
	}
	if pr.Status != "success" {
		return fmt.Errorf("unexpected pull status %q", pr.Status)
	}
	return nil
}

func (l *Loader) writeManifest() error {
	if l.cfg.CacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(l.cfg.CacheDir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	data, err := json.MarshalIndent(Manifest{
		Model:     l.cfg.Model,
		Dimension: l.cfg.Dimension,
		BaseURL:   l.cfg.BaseURL,
		LoadedAt:  time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(l.ManifestPath(), data, 0o644)
}

func probe(ctx context.Context, backend Backend, dim int) error {
	vec, err := backend.Embed(ctx, probeText)
	if err != nil {
		return err
	}
	if len(vec) != dim {
		return fmt.Errorf("%w: got %d, want %d", ErrUnexpectedDimension, len(vec), dim)
	}
	return nil
}
