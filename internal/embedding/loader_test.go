package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocragent/ocr-agent-pro/internal/logging"
)

func testLoaderConfig(url, cacheDir string, dim int) LoaderConfig {
	return LoaderConfig{
		Model:     "all-minilm",
		Dimension: dim,
		CacheDir:  cacheDir,
		BaseURL:   url + "/v1",
		APIKey:    "ollama",
		OllamaURL: url,
		Timeout:   300 * time.Millisecond,
	}
}

func TestLoader_CacheHit(t *testing.T) {
	f, srv := newFakeOllama(t, 8)
	dir := t.TempDir()

	l := NewLoader(testLoaderConfig(srv.URL, dir, 8), logging.Nop())
	writeTestManifest(t, l.ManifestPath(), Manifest{Model: "all-minilm", Dimension: 8})

	backend, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ModeModel, backend.Mode())
	assert.Zero(t, f.pullCalls.Load(), "cached model should not be pulled")
}

func TestLoader_DownloadWritesManifest(t *testing.T) {
	f, srv := newFakeOllama(t, 8)
	dir := filepath.Join(t.TempDir(), "models")

	l := NewLoader(testLoaderConfig(srv.URL, dir, 8), logging.Nop())
	backend, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ModeModel, backend.Mode())
	assert.EqualValues(t, 1, f.pullCalls.Load())

	data, err := os.ReadFile(l.ManifestPath())
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "all-minilm", m.Model)
	assert.Equal(t, 8, m.Dimension)
}

func TestLoader_StaleManifestFallsThroughToDownload(t *testing.T) {
	f, srv := newFakeOllama(t, 8)
	dir := t.TempDir()

	l := NewLoader(testLoaderConfig(srv.URL, dir, 8), logging.Nop())
	writeTestManifest(t, l.ManifestPath(), Manifest{Model: "all-minilm", Dimension: 16})

	_, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.pullCalls.Load())
}

func TestLoader_BothStepsFail(t *testing.T) {
	f, srv := newFakeOllama(t, 8)
	f.embedStatus.Store(http.StatusNotFound)
	f.pullStatus.Store(http.StatusInternalServerError)

	l := NewLoader(testLoaderConfig(srv.URL, t.TempDir(), 8), logging.Nop())
	backend, err := l.Load(context.Background())
	require.Error(t, err)
	assert.Nil(t, backend)
	assert.ErrorIs(t, err, ErrModelUnavailable)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Error(t, loadErr.Cache)
	assert.Error(t, loadErr.Download)
}

func TestLoader_WrongDimensionFails(t *testing.T) {
	_, srv := newFakeOllama(t, 4)

	l := NewLoader(testLoaderConfig(srv.URL, t.TempDir(), 8), logging.Nop())
	_, err := l.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedDimension)
	assert.NoFileExists(t, l.ManifestPath())
}

func TestLoader_ManifestPathSanitizesModelName(t *testing.T) {
	l := NewLoader(LoaderConfig{Model: "sentence-transformers/all-minilm:l6", CacheDir: "models"}, nil)
	assert.Equal(t, filepath.Join("models", "sentence-transformers_all-minilm_l6.json"), l.ManifestPath())
}

func writeTestManifest(t *testing.T, path string, m Manifest) {
	t.Helper()
	data, err := json.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}
