// Package metadata asks a chat model to classify ingested documents.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultMaxTokens is the maximum content length before truncation (in tokens).
const DefaultMaxTokens = 4000

// Document types recognised by the classifier.
const (
	TypeCurriculum  = "curriculum"
	TypeTextbook    = "textbook"
	TypeProgression = "progression"
)

// Classification is the model's view of a document.
type Classification struct {
	Summary      string `json:"summary"`
	DocumentType string `json:"document_type"`
	Subject      string `json:"subject"`
	ClassLevel   string `json:"class_level"`
}

// Config configures a Classifier.
type Config struct {
	// BaseURL is an OpenAI-compatible API root, e.g. Ollama's /v1.
	BaseURL    string
	APIKey     string
	Model      string
	MaxTokens  int
	HTTPClient *http.Client
}

// Classifier produces summaries and curriculum labels with a chat model.
type Classifier struct {
	client    openai.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

// NewClassifier creates a Classifier.
func NewClassifier(cfg Config, logger *slog.Logger) *Classifier {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Classifier{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}
}

// Classify summarizes content and labels its document type, subject and
// class level. Unknown document types are returned empty.
func (c *Classifier) Classify(ctx context.Context, name, content string) (*Classification, error) {
	truncated := c.truncateContent(content)

	prompt := fmt.Sprintf(`Analyze this document from the Cameroonian secondary school curriculum and provide:
1. A concise summary (1-2 sentences) of its main topic
2. The document type: one of "curriculum", "textbook" or "progression"
3. The subject, e.g. "Mathematics", "Biology", "French"
4. The class level, e.g. "Form 1", "Form 5", "Lower Sixth"

Document name: %s

Document content:
%s

Respond in JSON format:
{"summary": "...", "document_type": "...", "subject": "...", "class_level": "..."}

Use an empty string for anything the document does not make clear.`, name, truncated)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(c.model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	return parseClassification(resp.Choices[0].Message.Content)
}

func parseClassification(raw string) (*Classification, error) {
	var cl Classification
	if err := json.Unmarshal([]byte(raw), &cl); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	cl.Summary = strings.TrimSpace(cl.Summary)
	cl.Subject = strings.TrimSpace(cl.Subject)
	cl.ClassLevel = strings.TrimSpace(cl.ClassLevel)
	switch t := strings.ToLower(strings.TrimSpace(cl.DocumentType)); t {
	case TypeCurriculum, TypeTextbook, TypeProgression:
		cl.DocumentType = t
	default:
		cl.DocumentType = ""
	}
	return &cl, nil
}

// truncateContent cuts content to the token budget, estimating four
// characters per token.
func (c *Classifier) truncateContent(content string) string {
	maxChars := c.maxTokens * 4
	if utf8.RuneCountInString(content) <= maxChars {
		return content
	}

	c.logger.Warn("truncating content for classification",
		"from_chars", utf8.RuneCountInString(content), "to_chars", maxChars, "max_tokens", c.maxTokens)

	return string([]rune(content)[:maxChars])
}
