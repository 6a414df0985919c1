package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocragent/ocr-agent-pro/internal/logging"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req struct {
			Model string `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req.Model)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClassify(t *testing.T) {
	srv := chatServer(t, `{"summary":" Covers cell division. ","document_type":"Textbook","subject":"Biology","class_level":"Form 4"}`)
	c := NewClassifier(Config{BaseURL: srv.URL + "/v1", APIKey: "ollama", Model: "llama3.2"}, logging.Nop())

	cl, err := c.Classify(context.Background(), "bio.pdf", "Mitosis is a form of cell division.")
	require.NoError(t, err)
	assert.Equal(t, "Covers cell division.", cl.Summary)
	assert.Equal(t, TypeTextbook, cl.DocumentType)
	assert.Equal(t, "Biology", cl.Subject)
	assert.Equal(t, "Form 4", cl.ClassLevel)
}

func TestClassify_InvalidJSON(t *testing.T) {
	srv := chatServer(t, `not json`)
	c := NewClassifier(Config{BaseURL: srv.URL + "/v1", Model: "llama3.2"}, logging.Nop())

	_, err := c.Classify(context.Background(), "x", "y")
	assert.Error(t, err)
}

func TestParseClassification_UnknownTypeDropped(t *testing.T) {
	cl, err := parseClassification(`{"summary":"s","document_type":"novel"}`)
	require.NoError(t, err)
	assert.Empty(t, cl.DocumentType)
	assert.Equal(t, "s", cl.Summary)
}

func TestTruncateContent(t *testing.T) {
	c := &Classifier{maxTokens: 1000, logger: logging.Nop()}

	long := strings.Repeat("Contenu é. ", 1000)
	truncated := c.truncateContent(long)
	assert.Equal(t, 4000, utf8.RuneCountInString(truncated))
	assert.True(t, strings.HasPrefix(long, truncated))

	short := "Short. "
	assert.Equal(t, short, c.truncateContent(short))
}
