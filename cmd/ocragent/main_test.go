package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lesson = "Photosynthesis happens in the chloroplast. " +
	"Light energy is converted into chemical energy. " +
	"Carbon dioxide and water produce glucose and oxygen."

// offlineEnv points the embedder at a closed port so every command runs in
// fallback mode.
func offlineEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OLLAMA_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("EMBEDDING_LOAD_TIMEOUT", "100ms")
	t.Setenv("EMBEDDING_CACHE_DIR", t.TempDir())
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "error")
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestChunkCmd_Stdin(t *testing.T) {
	offlineEnv(t)

	out, err := execute(t, lesson, "chunk", "-", "--size", "60", "--overlap", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "[0]")
	assert.Contains(t, out, "[2]")
	assert.Contains(t, out, "Photosynthesis happens in the chloroplast.")
	assert.Contains(t, out, "3 chunks")
}

func TestChunkCmd_File(t *testing.T) {
	offlineEnv(t)
	path := filepath.Join(t.TempDir(), "lesson.txt")
	require.NoError(t, os.WriteFile(path, []byte(lesson), 0o600))

	out, err := execute(t, "", "chunk", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 chunks")
}

func TestChunkCmd_UnsupportedFile(t *testing.T) {
	offlineEnv(t)
	path := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0o600))

	_, err := execute(t, "", "chunk", path)
	assert.Error(t, err)
}

func TestIngestCmd(t *testing.T) {
	offlineEnv(t)
	dir := t.TempDir()
	good := filepath.Join(dir, "lesson.txt")
	bad := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(good, []byte(lesson), 0o600))
	require.NoError(t, os.WriteFile(bad, []byte("   "), 0o600))

	out, err := execute(t, "", "ingest", "--no-llm", "--subject", "Biology", good)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+good)
	assert.Contains(t, out, "1 chunks")

	out, err = execute(t, "", "ingest", "--no-llm", good, bad)
	require.Error(t, err)
	assert.Contains(t, out, "✗ "+bad)
}

func TestStatusCmd(t *testing.T) {
	offlineEnv(t)

	out, err := execute(t, "", "status", "--no-llm")
	require.NoError(t, err)
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "fallback")
}

func TestModelInfoCmd(t *testing.T) {
	offlineEnv(t)

	out, err := execute(t, "", "model-info", "--no-llm")
	require.NoError(t, err)
	assert.Contains(t, out, `"mode": "fallback"`)
	assert.Contains(t, out, `"embedding_dimension": 384`)
	assert.NotContains(t, out, `"model"`)
}

func TestSearchCmd_EmptyIndex(t *testing.T) {
	offlineEnv(t)

	out, err := execute(t, "", "search", "--no-llm", "photosynthesis")
	require.NoError(t, err)
	assert.Contains(t, out, "No matching chunks found.")
}
