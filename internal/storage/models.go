package storage

import "time"

// Status is a document's processing state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Document is an uploaded or synced document and its extracted text.
type Document struct {
	ID            string // UUID
	Name          string
	Filename      string
	MimeType      string
	SourceURL     string // Origin when synced from a repository
	DocumentType  string // e.g. "lesson_note", "exam", "syllabus"
	Subject       string
	ClassLevel    string
	ExtractedText string
	OCRMethod     string
	Summary       string   // LLM-generated, optional
	Headings      []string // Document outline when the source has one
	Status        Status
	ErrorMessage  string
	ChunkCount    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Chunk is one embedded segment of a document. Chunks of a document have
// contiguous indexes starting at 0 and are replaced as a whole.
type Chunk struct {
	ID         string // UUID
	DocumentID string
	Index      int
	Content    string
	StartChar  *int // Character offsets into the extracted text, when known
	EndChar    *int
	Embedding  []float32
	Metadata   map[string]string
}

// ChunkFilter narrows ListChunks. An empty filter matches every chunk.
type ChunkFilter struct {
	DocumentIDs []string
}

// DocumentCounts reports how many documents are in each status.
type DocumentCounts map[Status]int
