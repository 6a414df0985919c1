// Package indexer turns extracted document text into stored, embedded chunks.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ocragent/ocr-agent-pro/internal/chunking"
	"github.com/ocragent/ocr-agent-pro/internal/extract"
	"github.com/ocragent/ocr-agent-pro/internal/metadata"
	"github.com/ocragent/ocr-agent-pro/internal/storage"
)

// ErrEmptyText is returned when a document has no text to index.
var ErrEmptyText = errors.New("document has no extracted text")

// Embedder produces one vector per text. *embedding.Service satisfies it.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) [][]float32
}

// Classifier labels a document. *metadata.Classifier satisfies it.
type Classifier interface {
	Classify(ctx context.Context, name, content string) (*metadata.Classification, error)
}

// IngestRequest describes a document to index. Empty classification fields
// are filled by the classifier when one is configured.
type IngestRequest struct {
	Name         string
	Filename     string
	MimeType     string
	SourceURL    string
	Text         string
	OCRMethod    string
	DocumentType string
	Subject      string
	ClassLevel   string
	Headings     []string
}

// IngestResult reports the outcome for one document.
type IngestResult struct {
	DocumentID string
	Status     storage.Status
	Chunks     int
	Duration   time.Duration
}

// IndexResult contains statistics about a sync from a Source.
type IndexResult struct {
	TotalDocs      int
	TotalChunks    int
	SuccessfulDocs int
	FailedDocs     []FailedDoc
	Revision       string
	Duration       time.Duration
}

// FailedDoc represents a document that failed to index.
type FailedDoc struct {
	Path   string
	Reason string
}

// Pipeline orchestrates chunking, embedding and storage of documents.
type Pipeline struct {
	store      storage.Store
	chunker    *chunking.Chunker
	embedder   Embedder
	classifier Classifier
	logger     *slog.Logger
}

// NewPipeline creates a new indexing pipeline. classifier may be nil.
func NewPipeline(
	store storage.Store,
	chunker *chunking.Chunker,
	embedder Embedder,
	classifier Classifier,
	logger *slog.Logger,
) *Pipeline {
	if chunker == nil {
		chunker = chunking.New(chunking.DefaultChunkSize, chunking.DefaultOverlap)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:      store,
		chunker:    chunker,
		embedder:   embedder,
		classifier: classifier,
		logger:     logger,
	}
}

// Create stores req as a pending document without indexing it.
func (p *Pipeline) Create(ctx context.Context, req IngestRequest) (*storage.Document, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = req.Filename
	}
	now := time.Now().UTC()
	doc := &storage.Document{
		ID:            uuid.New().String(),
		Name:          name,
		Filename:      req.Filename,
		MimeType:      req.MimeType,
		SourceURL:     req.SourceURL,
		DocumentType:  req.DocumentType,
		Subject:       req.Subject,
		ClassLevel:    req.ClassLevel,
		ExtractedText: req.Text,
		OCRMethod:     req.OCRMethod,
		Headings:      req.Headings,
		Status:        storage.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := p.store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

// Ingest creates a document and indexes it synchronously. The returned
// result is non-nil whenever the document was created, including when
// indexing failed.
func (p *Pipeline) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	doc, err := p.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	return p.process(ctx, doc)
}

// Reprocess re-chunks and re-embeds the stored text of a document, replacing
// all of its chunks.
func (p *Pipeline) Reprocess(ctx context.Context, documentID string) (*IngestResult, error) {
	doc, err := p.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return p.process(ctx, doc)
}

// process runs one document through classification, chunking, embedding and
// storage. Any error leaves the document failed with no chunks.
func (p *Pipeline) process(ctx context.Context, doc *storage.Document) (*IngestResult, error) {
	start := time.Now()
	result := &IngestResult{DocumentID: doc.ID}

	// 1. Mark processing
	doc.Status = storage.StatusProcessing
	doc.ErrorMessage = ""
	if err := p.touch(ctx, doc); err != nil {
		return nil, fmt.Errorf("mark processing: %w", err)
	}

	// 2. Classify (best effort)
	p.classify(ctx, doc)

	// 3. Chunk, embed and store
	count, err := p.index(ctx, doc)
	if err != nil {
		p.logger.Warn("Failed to index document", "id", doc.ID, "name", doc.Name, "error", err)
		doc.Status = storage.StatusFailed
		doc.ErrorMessage = err.Error()
		doc.ChunkCount = 0
		if clearErr := p.store.ReplaceChunks(ctx, doc.ID, nil); clearErr != nil {
			p.logger.Warn("Failed to clear chunks", "id", doc.ID, "error", clearErr)
		}
		if updateErr := p.touch(ctx, doc); updateErr != nil {
			p.logger.Error("Failed to mark document failed", "id", doc.ID, "error", updateErr)
		}
		result.Status = doc.Status
		result.Duration = time.Since(start)
		return result, err
	}

	// 4. Mark completed
	doc.Status = storage.StatusCompleted
	doc.ChunkCount = count
	if err := p.touch(ctx, doc); err != nil {
		return nil, fmt.Errorf("mark completed: %w", err)
	}

	result.Status = doc.Status
	result.Chunks = count
	result.Duration = time.Since(start)
	p.logger.Info("Indexed document", "id", doc.ID, "name", doc.Name, "chunks", count, "duration", result.Duration)
	return result, nil
}

func (p *Pipeline) index(ctx context.Context, doc *storage.Document) (int, error) {
	if strings.TrimSpace(doc.ExtractedText) == "" {
		return 0, ErrEmptyText
	}

	pieces := p.chunker.Split(doc.ExtractedText)
	p.logger.Debug("Chunked document", "id", doc.ID, "chunks", len(pieces))

	texts := make([]string, len(pieces))
	for i, piece := range pieces {
		texts[i] = piece.Text
	}
	vectors := p.embedder.EmbedBatch(ctx, texts)
	if len(vectors) != len(pieces) {
		return 0, fmt.Errorf("embeddings: got %d vectors for %d chunks", len(vectors), len(pieces))
	}

	chunks := make([]*storage.Chunk, len(pieces))
	for i, piece := range pieces {
		startChar, endChar := piece.StartChar, piece.EndChar
		chunks[i] = &storage.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Index:      piece.Index,
			Content:    piece.Text,
			StartChar:  &startChar,
			EndChar:    &endChar,
			Embedding:  vectors[i],
			Metadata:   chunkMetadata(doc),
		}
	}

	if err := p.store.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	return len(chunks), nil
}

func (p *Pipeline) classify(ctx context.Context, doc *storage.Document) {
	if p.classifier == nil || strings.TrimSpace(doc.ExtractedText) == "" {
		return
	}
	if doc.Summary != "" && doc.DocumentType != "" && doc.Subject != "" && doc.ClassLevel != "" {
		return
	}

	c, err := p.classifier.Classify(ctx, doc.Name, doc.ExtractedText)
	if err != nil {
		p.logger.Warn("Classification failed, keeping provided metadata", "id", doc.ID, "error", err)
		return
	}
	if doc.Summary == "" {
		doc.Summary = c.Summary
	}
	if doc.DocumentType == "" {
		doc.DocumentType = c.DocumentType
	}
	if doc.Subject == "" {
		doc.Subject = c.Subject
	}
	if doc.ClassLevel == "" {
		doc.ClassLevel = c.ClassLevel
	}
}

func (p *Pipeline) touch(ctx context.Context, doc *storage.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	return p.store.UpdateDocument(ctx, doc)
}

func chunkMetadata(doc *storage.Document) map[string]string {
	md := map[string]string{"document_name": doc.Name}
	if doc.DocumentType != "" {
		md["document_type"] = doc.DocumentType
	}
	if doc.Subject != "" {
		md["subject"] = doc.Subject
	}
	if doc.ClassLevel != "" {
		md["class_level"] = doc.ClassLevel
	}
	return md
}

// IndexAll fetches every supported document from src and indexes it.
// Documents already synced from the same URL are re-indexed in place.
func (p *Pipeline) IndexAll(ctx context.Context, src Source) (*IndexResult, error) {
	start := time.Now()
	result := &IndexResult{}

	// 1. Get source revision
	revision, err := src.Revision(ctx)
	if err != nil {
		return nil, fmt.Errorf("get revision: %w", err)
	}
	result.Revision = revision
	p.logger.Info("Starting sync", "revision", revision)

	// 2. List all docs
	paths, err := src.ListDocs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list docs: %w", err)
	}
	result.TotalDocs = len(paths)
	p.logger.Info("Found documents", "count", len(paths))

	existing, err := p.syncedDocuments(ctx)
	if err != nil {
		return nil, err
	}

	// 3. Process each document
	for _, path := range paths {
		chunks, err := p.syncDocument(ctx, src, path, existing)
		if err != nil {
			p.logger.Warn("Failed to process document", "path", path, "error", err)
			result.FailedDocs = append(result.FailedDocs, FailedDoc{
				Path:   path,
				Reason: err.Error(),
			})
			continue
		}
		result.SuccessfulDocs++
		result.TotalChunks += chunks
	}

	result.Duration = time.Since(start)
	p.logger.Info("Sync complete",
		"successful", result.SuccessfulDocs,
		"failed", len(result.FailedDocs),
		"chunks", result.TotalChunks,
		"duration", result.Duration,
	)
	return result, nil
}

func (p *Pipeline) syncedDocuments(ctx context.Context) (map[string]*storage.Document, error) {
	docs, err := p.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	bySource := make(map[string]*storage.Document)
	for _, d := range docs {
		if d.SourceURL != "" {
			bySource[d.SourceURL] = d
		}
	}
	return bySource, nil
}

func (p *Pipeline) syncDocument(ctx context.Context, src Source, path string, existing map[string]*storage.Document) (int, error) {
	fetched, err := src.FetchDoc(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	p.logger.Debug("Fetched document", "path", path, "size", len(fetched.Data))

	ex, err := extract.FromBytes(path, fetched.Data)
	if err != nil {
		return 0, fmt.Errorf("extract: %w", err)
	}

	var res *IngestResult
	if doc, ok := existing[fetched.URL]; ok {
		doc.ExtractedText = ex.Text
		doc.Headings = ex.Headings
		doc.OCRMethod = ex.Method
		res, err = p.process(ctx, doc)
	} else {
		res, err = p.Ingest(ctx, IngestRequest{
			Name:      ex.Name,
			Filename:  path,
			MimeType:  ex.MimeType,
			SourceURL: fetched.URL,
			Text:      ex.Text,
			OCRMethod: ex.Method,
			Headings:  ex.Headings,
		})
	}
	if err != nil {
		return 0, err
	}
	return res.Chunks, nil
}
