package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// CollectionName is the single Qdrant collection holding documents and
// chunks. Documents are vectorless parent points.
const CollectionName = "document_chunks"

const (
	vectorName      = "content"
	pointTypeParent = "parent"
	pointTypeChunk  = "chunk"
	qdrantBatchSize = 100
)

// QdrantStore keeps documents and chunks in Qdrant.
type QdrantStore struct {
	client    *qdrant.Client
	dimension int
}

// NewQdrantStore connects over gRPC, waits for the server to report healthy
// and ensures the collection exists.
func NewQdrantStore(ctx context.Context, host string, port int, dimension int) (*QdrantStore, error) {
	// Create Qdrant client using gRPC
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	s := &QdrantStore{client: client, dimension: dimension}

	// Wait for the server with exponential backoff
	if err := s.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if err := s.EnsureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return s, nil
}

func newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return b
}

func (s *QdrantStore) healthCheckWithRetry(ctx context.Context) error {
	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(newBackoff(), ctx))
}

// Health implements Store.
func (s *QdrantStore) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection creates the collection and its payload indexes when
// missing. Safe to call repeatedly.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	// Check if collection already exists
	exists, err := s.client.CollectionExists(ctx, CollectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	// Named vectors let vectorless parent documents share the collection
	// with chunks
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: CollectionName,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			vectorName: {
				Size:     uint64(s.dimension),
				Distance: qdrant.Distance_Cosine,
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	// Create payload indexes for all filterable fields
	for _, field := range []string{"type", "document_id", "processing_status"} {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: CollectionName,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to create index for field %s: %w", field, err)
		}
	}
	return nil
}

// Close implements Store.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *QdrantStore) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: CollectionName,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		return err
	}, backoff.WithContext(newBackoff(), ctx))
}

// CreateDocument implements Store.
func (s *QdrantStore) CreateDocument(ctx context.Context, doc *Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	return s.upsertDocument(ctx, doc)
}

// UpdateDocument implements Store.
func (s *QdrantStore) UpdateDocument(ctx context.Context, doc *Document) error {
	existing, err := s.GetDocument(ctx, doc.ID)
	if err != nil {
		return err
	}
	doc.CreatedAt = existing.CreatedAt
	doc.UpdatedAt = time.Now().UTC()
	return s.upsertDocument(ctx, doc)
}

func (s *QdrantStore) upsertDocument(ctx context.Context, doc *Document) error {
	// NewValueMap converts []any, not []string
	headings := make([]any, len(doc.Headings))
	for i, h := range doc.Headings {
		headings[i] = h
	}

	// Parent documents don't have vectors - use empty vector map
	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(doc.ID),
		Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{}),
		Payload: qdrant.NewValueMap(map[string]any{
			"type":              pointTypeParent,
			"name":              doc.Name,
			"filename":          doc.Filename,
			"mime_type":         doc.MimeType,
			"source_url":        doc.SourceURL,
			"document_type":     doc.DocumentType,
			"subject":           doc.Subject,
			"class_level":       doc.ClassLevel,
			"extracted_text":    doc.ExtractedText,
			"ocr_method":        doc.OCRMethod,
			"summary":           doc.Summary,
			"headings":          headings,
			"processing_status": string(doc.Status),
			"error_message":     doc.ErrorMessage,
			"chunk_count":       doc.ChunkCount,
			"created_at":        doc.CreatedAt.Format(time.RFC3339Nano),
			"updated_at":        doc.UpdatedAt.Format(time.RFC3339Nano),
		}),
	}
	if err := s.upsertWithRetry(ctx, []*qdrant.PointStruct{point}); err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// GetDocument implements Store.
func (s *QdrantStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	result, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: CollectionName,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}

	// Verify this is a parent document
	point := result[0]
	if point.Payload["type"].GetStringValue() != pointTypeParent {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return documentFromPayload(id, point.Payload), nil
}

// ListDocuments implements Store.
func (s *QdrantStore) ListDocuments(ctx context.Context) ([]*Document, error) {
	var docs []*Document
	err := s.scroll(ctx, parentFilter(), false, func(p *qdrant.RetrievedPoint) {
		docs = append(docs, documentFromPayload(p.Id.GetUuid(), p.Payload))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	sortDocuments(docs)
	return docs, nil
}

// ReplaceChunks implements Store. Qdrant has no multi-point transaction, so
// the new chunks are upserted before the old ones are deleted by ID. Readers
// never see the document without chunks, though between the two steps they
// may see both sets. A failed upsert removes the points it wrote and leaves
// the old set in place.
func (s *QdrantStore) ReplaceChunks(ctx context.Context, documentID string, chunks []*Chunk) error {
	if err := validateChunks(documentID, chunks, s.dimension); err != nil {
		return err
	}
	if _, err := s.GetDocument(ctx, documentID); err != nil {
		return err
	}

	// Collect the IDs of the current chunk set
	var existing []string
	err := s.scroll(ctx, chunkFilter([]string{documentID}), false, func(p *qdrant.RetrievedPoint) {
		existing = append(existing, p.Id.GetUuid())
	})
	if err != nil {
		return fmt.Errorf("failed to list existing chunks: %w", err)
	}

	// Upsert the new set in batches
	for i := 0; i < len(chunks); i += qdrantBatchSize {
		end := min(i+qdrantBatchSize, len(chunks))

		points := make([]*qdrant.PointStruct, 0, end-i)
		for _, c := range chunks[i:end] {
			points = append(points, chunkPoint(c))
		}
		if err := s.upsertWithRetry(ctx, points); err != nil {
			_ = s.deletePoints(ctx, subtractIDs(chunkIDs(chunks[:end]), existing))
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}

	// Drop old chunks that the new set did not overwrite
	if err := s.deletePoints(ctx, subtractIDs(existing, chunkIDs(chunks))); err != nil {
		return fmt.Errorf("failed to delete stale chunks: %w", err)
	}
	return nil
}

// deletePoints removes points by UUID. An empty list is a no-op.
func (s *QdrantStore) deletePoints(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewIDUUID(id)
	}
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: CollectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	return err
}

// subtractIDs returns the IDs in ids that are not in drop, in order.
func subtractIDs(ids, drop []string) []string {
	dropped := make(map[string]struct{}, len(drop))
	for _, id := range drop {
		dropped[id] = struct{}{}
	}
	var out []string
	for _, id := range ids {
		if _, ok := dropped[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func chunkIDs(chunks []*Chunk) []string {
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	return ids
}

// ListChunks implements Store.
func (s *QdrantStore) ListChunks(ctx context.Context, filter ChunkFilter) ([]*Chunk, error) {
	var chunks []*Chunk
	err := s.scroll(ctx, chunkFilter(filter.DocumentIDs), true, func(p *qdrant.RetrievedPoint) {
		chunks = append(chunks, chunkFromPoint(p))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	sortChunks(chunks)
	return chunks, nil
}

// CountChunks implements Store.
func (s *QdrantStore) CountChunks(ctx context.Context) (int, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: CollectionName,
		Filter:         chunkFilter(nil),
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return int(n), nil
}

// scroll pages through every point matching filter.
func (s *QdrantStore) scroll(ctx context.Context, filter *qdrant.Filter, withVectors bool, fn func(*qdrant.RetrievedPoint)) error {
	var offset *qdrant.PointId
	for {
		resp, err := s.client.GetPointsClient().Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: CollectionName,
			Filter:         filter,
			Limit:          qdrant.PtrOf(uint32(qdrantBatchSize)),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(withVectors),
		})
		if err != nil {
			return err
		}

		for _, p := range resp.GetResult() {
			fn(p)
		}

		offset = resp.GetNextPageOffset()
		if offset == nil {
			return nil
		}
	}
}

func parentFilter() *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch("type", pointTypeParent)},
	}
}

func chunkFilter(documentIDs []string) *qdrant.Filter {
	must := []*qdrant.Condition{qdrant.NewMatch("type", pointTypeChunk)}
	if len(documentIDs) > 0 {
		must = append(must, qdrant.NewMatchKeywords("document_id", documentIDs...))
	}
	return &qdrant.Filter{Must: must}
}

func chunkPoint(c *Chunk) *qdrant.PointStruct {
	metadata := make(map[string]any, len(c.Metadata))
	for k, v := range c.Metadata {
		metadata[k] = v
	}

	payload := map[string]any{
		"type":           pointTypeChunk,
		"document_id":    c.DocumentID,
		"chunk_index":    c.Index,
		"content":        c.Content,
		"chunk_metadata": metadata,
	}
	if c.StartChar != nil {
		payload["start_char"] = *c.StartChar
	}
	if c.EndChar != nil {
		payload["end_char"] = *c.EndChar
	}

	return &qdrant.PointStruct{
		Id: qdrant.NewIDUUID(c.ID),
		Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
			vectorName: qdrant.NewVector(c.Embedding...),
		}),
		Payload: qdrant.NewValueMap(payload),
	}
}

func chunkFromPoint(p *qdrant.RetrievedPoint) *Chunk {
	payload := p.Payload
	c := &Chunk{
		ID:         p.Id.GetUuid(),
		DocumentID: payload["document_id"].GetStringValue(),
		Index:      int(payload["chunk_index"].GetIntegerValue()),
		Content:    payload["content"].GetStringValue(),
	}
	// Offsets are optional
	if v, ok := payload["start_char"]; ok {
		n := int(v.GetIntegerValue())
		c.StartChar = &n
	}
	if v, ok := payload["end_char"]; ok {
		n := int(v.GetIntegerValue())
		c.EndChar = &n
	}
	if md := payload["chunk_metadata"].GetStructValue(); md != nil && len(md.Fields) > 0 {
		c.Metadata = make(map[string]string, len(md.Fields))
		for k, v := range md.Fields {
			c.Metadata[k] = v.GetStringValue()
		}
	}
	// Read the named "content" vector
	if vec := p.GetVectors().GetVectors().GetVectors()[vectorName]; vec != nil {
		if dense := vec.GetDense(); dense != nil {
			c.Embedding = dense.GetData()
		} else {
			c.Embedding = vec.GetData()
		}
	}
	return c
}

func documentFromPayload(id string, payload map[string]*qdrant.Value) *Document {
	var headings []string
	if list := payload["headings"].GetListValue(); list != nil {
		for _, v := range list.Values {
			headings = append(headings, v.GetStringValue())
		}
	}

	// Zero time when missing or unparsable
	createdAt, _ := time.Parse(time.RFC3339Nano, payload["created_at"].GetStringValue())
	updatedAt, _ := time.Parse(time.RFC3339Nano, payload["updated_at"].GetStringValue())

	return &Document{
		ID:            id,
		Name:          payload["name"].GetStringValue(),
		Filename:      payload["filename"].GetStringValue(),
		MimeType:      payload["mime_type"].GetStringValue(),
		SourceURL:     payload["source_url"].GetStringValue(),
		DocumentType:  payload["document_type"].GetStringValue(),
		Subject:       payload["subject"].GetStringValue(),
		ClassLevel:    payload["class_level"].GetStringValue(),
		ExtractedText: payload["extracted_text"].GetStringValue(),
		OCRMethod:     payload["ocr_method"].GetStringValue(),
		Summary:       payload["summary"].GetStringValue(),
		Headings:      headings,
		Status:        Status(payload["processing_status"].GetStringValue()),
		ErrorMessage:  payload["error_message"].GetStringValue(),
		ChunkCount:    int(payload["chunk_count"].GetIntegerValue()),
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}
