// Package mcp exposes document search and ingestion as MCP tools.
package mcp

import (
	"time"

	"github.com/ocragent/ocr-agent-pro/internal/embedding"
	"github.com/ocragent/ocr-agent-pro/internal/search"
	"github.com/ocragent/ocr-agent-pro/internal/storage"
)

// SearchChunksInput defines the input parameters for the search_chunks tool.
type SearchChunksInput struct {
	// Query is the semantic search query.
	Query string `json:"query" jsonschema:"The search query, e.g. a lesson topic or exam question"`
	// TopK is the maximum number of chunks to return.
	TopK int `json:"top_k,omitempty" jsonschema:"Maximum number of chunks to return (default 5)"`
	// MinScore drops chunks scoring below it.
	MinScore *float64 `json:"min_score,omitempty" jsonschema:"Minimum cosine similarity between -1 and 1"`
	// DocumentIDs restricts the search to these documents.
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"Only search chunks of these document IDs"`
}

// SearchChunksOutput contains the ranked chunks.
type SearchChunksOutput struct {
	Results     []search.Result `json:"results"`
	Candidates  int             `json:"candidates"`
	RetrievalMs int             `json:"retrieval_ms"`
	// Message provides informational context (e.g., "No matching chunks found").
	Message string `json:"message,omitempty"`
}

// FetchDocumentInput defines the input parameters for the fetch_document tool.
type FetchDocumentInput struct {
	ID string `json:"id" jsonschema:"The document ID returned by list_documents or search_chunks"`
}

// FetchDocumentOutput contains the document and its extracted text.
type FetchDocumentOutput struct {
	Found        bool           `json:"found"`
	ID           string         `json:"id"`
	Name         string         `json:"name,omitempty"`
	Status       storage.Status `json:"status,omitempty"`
	DocumentType string         `json:"document_type,omitempty"`
	Subject      string         `json:"subject,omitempty"`
	ClassLevel   string         `json:"class_level,omitempty"`
	Summary      string         `json:"summary,omitempty"`
	Headings     []string       `json:"headings,omitempty"`
	Content      string         `json:"content,omitempty"`
	ChunkCount   int            `json:"chunk_count"`
	ErrorMessage string         `json:"error_message,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ListDocumentsInput defines the input parameters for the list_documents tool.
type ListDocumentsInput struct {
	Status string `json:"status,omitempty" jsonschema:"Only list documents in this status: pending, processing, completed or failed"`
}

// DocumentSummary is one entry of list_documents.
type DocumentSummary struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Status       storage.Status `json:"status"`
	DocumentType string         `json:"document_type,omitempty"`
	Subject      string         `json:"subject,omitempty"`
	ClassLevel   string         `json:"class_level,omitempty"`
	ChunkCount   int            `json:"chunk_count"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ListDocumentsOutput contains the documents, newest first.
type ListDocumentsOutput struct {
	Documents []DocumentSummary `json:"documents"`
	Count     int               `json:"count"`
}

// IngestTextInput defines the input parameters for the ingest_text tool.
type IngestTextInput struct {
	Name         string `json:"name" jsonschema:"Display name of the document"`
	Text         string `json:"text" jsonschema:"Extracted document text"`
	DocumentType string `json:"document_type,omitempty" jsonschema:"curriculum, textbook or progression"`
	Subject      string `json:"subject,omitempty" jsonschema:"School subject, e.g. Biology"`
	ClassLevel   string `json:"class_level,omitempty" jsonschema:"Class level, e.g. Form 4"`
	Async        bool   `json:"async,omitempty" jsonschema:"Queue the document and return before it is indexed"`
}

// IngestTextOutput reports the stored document.
type IngestTextOutput struct {
	DocumentID string         `json:"document_id"`
	Status     storage.Status `json:"status"`
	Chunks     int            `json:"chunks"`
	Error      string         `json:"error,omitempty"`
}

// StatusInput defines the input parameters for the get_index_status tool.
type StatusInput struct{}

// StatusOutput summarizes the index.
type StatusOutput struct {
	Documents      map[string]int `json:"documents"`
	TotalDocuments int            `json:"total_documents"`
	TotalChunks    int            `json:"total_chunks"`
	EmbeddingMode  embedding.Mode `json:"embedding_mode"`
}

// ModelInfoInput defines the input parameters for the get_model_info tool.
type ModelInfoInput struct{}

// ModelInfoOutput describes the embedding backend.
type ModelInfoOutput struct {
	Mode      embedding.Mode       `json:"mode"`
	Dimension int                  `json:"embedding_dimension"`
	Model     *embedding.ModelInfo `json:"model,omitempty"`
	// Message explains fallback mode.
	Message string `json:"message,omitempty"`
}
