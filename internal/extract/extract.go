// Package extract pulls plain text out of uploaded files. Scanned documents
// are expected to arrive already OCR'd; PDFs are read from their text layer.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/ocragent/ocr-agent-pro/internal/markdown"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrNoText          = errors.New("no text extracted")
)

// Extraction methods recorded on documents.
const (
	MethodText     = "text"
	MethodMarkdown = "markdown"
	MethodPDF      = "pdf-text"
)

// Extracted is the text of one file.
type Extracted struct {
	Name     string
	MimeType string
	Method   string
	Text     string
	Headings []string
}

var mimeTypes = map[string]string{
	".txt":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".pdf":      "application/pdf",
}

// Supported reports whether name has an extension FromBytes understands.
func Supported(name string) bool {
	_, ok := mimeTypes[strings.ToLower(filepath.Ext(name))]
	return ok
}

// FromFile reads and extracts the file at path.
func FromFile(path string) (*Extracted, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return FromBytes(filepath.Base(path), data)
}

// FromBytes extracts text from data, choosing the reader by the extension
// of name.
func FromBytes(name string, data []byte) (*Extracted, error) {
	ext := strings.ToLower(filepath.Ext(name))
	mimeType, ok := mimeTypes[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	out := &Extracted{Name: name, MimeType: mimeType}

	switch ext {
	case ".txt":
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%s is not valid UTF-8", name)
		}
		out.Method = MethodText
		out.Text = string(data)

	case ".md", ".markdown":
		doc, err := markdown.NewParser().Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse markdown %s: %w", name, err)
		}
		out.Method = MethodMarkdown
		out.Text = doc.Text
		out.Headings = doc.Headings

	case ".pdf":
		text, err := pdfText(data)
		if err != nil {
			return nil, fmt.Errorf("read pdf %s: %w", name, err)
		}
		out.Method = MethodPDF
		out.Text = text
	}

	if strings.TrimSpace(out.Text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoText, name)
	}
	return out, nil
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf buffer: %w", err)
	}
	return buf.String(), nil
}
