package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	filename          TEXT NOT NULL DEFAULT '',
	mime_type         TEXT NOT NULL DEFAULT '',
	source_url        TEXT NOT NULL DEFAULT '',
	document_type     TEXT NOT NULL DEFAULT '',
	subject           TEXT NOT NULL DEFAULT '',
	class_level       TEXT NOT NULL DEFAULT '',
	extracted_text    TEXT NOT NULL DEFAULT '',
	ocr_method        TEXT NOT NULL DEFAULT '',
	summary           TEXT NOT NULL DEFAULT '',
	headings          JSONB NOT NULL DEFAULT '[]',
	processing_status TEXT NOT NULL DEFAULT 'pending',
	error_message     TEXT NOT NULL DEFAULT '',
	chunk_count       INTEGER NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS document_chunks (
	id             TEXT PRIMARY KEY,
	document_id    TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	chunk_index    INTEGER NOT NULL,
	content        TEXT NOT NULL,
	start_char     INTEGER,
	end_char       INTEGER,
	embedding      JSONB NOT NULL,
	chunk_metadata JSONB NOT NULL DEFAULT '{}',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (document_id, chunk_index)
);

CREATE INDEX IF NOT EXISTS idx_document_chunks_document_id ON document_chunks (document_id);
`

const documentColumns = `id, name, filename, mime_type, source_url, document_type, subject,
	class_level, extracted_text, ocr_method, summary, headings, processing_status,
	error_message, chunk_count, created_at, updated_at`

// PostgresStore keeps documents and chunks in PostgreSQL. Embeddings are
// stored as JSONB arrays.
type PostgresStore struct {
	pool      *pgxpool.Pool
	dimension int
}

// NewPostgresStore connects, verifies the connection and creates the schema.
func NewPostgresStore(ctx context.Context, connStr string, dimension int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify the connection is reachable
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStore{pool: pool, dimension: dimension}, nil
}

// CreateDocument implements Store.
func (s *PostgresStore) CreateDocument(ctx context.Context, doc *Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	headings, err := json.Marshal(nonNilStrings(doc.Headings))
	if err != nil {
		return fmt.Errorf("marshal headings: %w", err)
	}

	_, err = s.pool.Exec(ctx, `INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		doc.ID, doc.Name, doc.Filename, doc.MimeType, doc.SourceURL, doc.DocumentType,
		doc.Subject, doc.ClassLevel, doc.ExtractedText, doc.OCRMethod, doc.Summary,
		headings, string(doc.Status), doc.ErrorMessage, doc.ChunkCount, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// UpdateDocument implements Store.
func (s *PostgresStore) UpdateDocument(ctx context.Context, doc *Document) error {
	doc.UpdatedAt = time.Now().UTC()

	headings, err := json.Marshal(nonNilStrings(doc.Headings))
	if err != nil {
		return fmt.Errorf("marshal headings: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `UPDATE documents SET
			name = $2, filename = $3, mime_type = $4, source_url = $5, document_type = $6,
			subject = $7, class_level = $8, extracted_text = $9, ocr_method = $10,
			summary = $11, headings = $12, processing_status = $13, error_message = $14,
			chunk_count = $15, updated_at = $16
		WHERE id = $1`,
		doc.ID, doc.Name, doc.Filename, doc.MimeType, doc.SourceURL, doc.DocumentType,
		doc.Subject, doc.ClassLevel, doc.ExtractedText, doc.OCRMethod, doc.Summary,
		headings, string(doc.Status), doc.ErrorMessage, doc.ChunkCount, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, doc.ID)
	}
	return nil
}

// GetDocument implements Store.
func (s *PostgresStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// ListDocuments implements Store.
func (s *PostgresStore) ListDocuments(ctx context.Context) ([]*Document, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// ReplaceChunks implements Store. The delete and inserts share one
// transaction.
func (s *PostgresStore) ReplaceChunks(ctx context.Context, documentID string, chunks []*Chunk) error {
	if err := validateChunks(documentID, chunks, s.dimension); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, documentID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check document: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		embedding, err := json.Marshal(c.Embedding)
		if err != nil {
			return fmt.Errorf("marshal embedding for chunk %d: %w", c.Index, err)
		}
		metadata, err := json.Marshal(nonNilMetadata(c.Metadata))
		if err != nil {
			return fmt.Errorf("marshal metadata for chunk %d: %w", c.Index, err)
		}
		batch.Queue(`INSERT INTO document_chunks
				(id, document_id, chunk_index, content, start_char, end_char, embedding, chunk_metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.ID, c.DocumentID, c.Index, c.Content, c.StartChar, c.EndChar, embedding, metadata)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert chunks: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// ListChunks implements Store.
func (s *PostgresStore) ListChunks(ctx context.Context, filter ChunkFilter) ([]*Chunk, error) {
	query := `SELECT id, document_id, chunk_index, content, start_char, end_char, embedding, chunk_metadata
		FROM document_chunks`
	var args []any
	if len(filter.DocumentIDs) > 0 {
		query += ` WHERE document_id = ANY($1)`
		args = append(args, filter.DocumentIDs)
	}
	query += ` ORDER BY document_id, chunk_index`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer rows.Close()

	var chunks []*Chunk
	for rows.Next() {
		var (
			c         Chunk
			embedding []byte
			metadata  []byte
		)
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Content, &c.StartChar, &c.EndChar, &embedding, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if err := json.Unmarshal(embedding, &c.Embedding); err != nil {
			return nil, fmt.Errorf("decode embedding of chunk %s: %w", c.ID, err)
		}
		if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of chunk %s: %w", c.ID, err)
		}
		chunks = append(chunks, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	return chunks, nil
}

// CountChunks implements Store.
func (s *PostgresStore) CountChunks(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM document_chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

// Health implements Store.
func (s *PostgresStore) Health(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return nil
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanDocument(row pgx.Row) (*Document, error) {
	var (
		d        Document
		status   string
		headings []byte
	)
	err := row.Scan(&d.ID, &d.Name, &d.Filename, &d.MimeType, &d.SourceURL, &d.DocumentType,
		&d.Subject, &d.ClassLevel, &d.ExtractedText, &d.OCRMethod, &d.Summary, &headings,
		&status, &d.ErrorMessage, &d.ChunkCount, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Status = Status(status)
	if err := json.Unmarshal(headings, &d.Headings); err != nil {
		return nil, fmt.Errorf("decode headings: %w", err)
	}
	return &d, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMetadata(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
