package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ocragent/ocr-agent-pro/internal/indexer"
	"github.com/ocragent/ocr-agent-pro/internal/search"
	"github.com/ocragent/ocr-agent-pro/internal/storage"
)

// makeSearchHandler creates the search_chunks tool handler.
func makeSearchHandler(searcher *search.Service) func(
	context.Context, *mcp.CallToolRequest, SearchChunksInput,
) (*mcp.CallToolResult, SearchChunksOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchChunksInput) (
		*mcp.CallToolResult, SearchChunksOutput, error,
	) {
		resp, err := searcher.Search(ctx, search.Query{
			Text:        input.Query,
			TopK:        input.TopK,
			MinScore:    input.MinScore,
			DocumentIDs: input.DocumentIDs,
		})
		if err != nil {
			return nil, SearchChunksOutput{}, fmt.Errorf("search failed: %w", err)
		}

		out := SearchChunksOutput{
			Results:     resp.Results,
			Candidates:  resp.Candidates,
			RetrievalMs: resp.RetrievalMs,
		}
		if len(out.Results) == 0 {
			out.Results = []search.Result{}
			out.Message = "No matching chunks found. Try broader search terms or ingest more documents."
		}
		return nil, out, nil
	}
}

// makeFetchHandler creates the fetch_document tool handler.
func makeFetchHandler(store storage.Store) func(
	context.Context, *mcp.CallToolRequest, FetchDocumentInput,
) (*mcp.CallToolResult, FetchDocumentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input FetchDocumentInput) (
		*mcp.CallToolResult, FetchDocumentOutput, error,
	) {
		doc, err := store.GetDocument(ctx, input.ID)
		if err != nil {
			if errors.Is(err, storage.ErrDocumentNotFound) {
				return nil, FetchDocumentOutput{Found: false, ID: input.ID}, nil
			}
			return nil, FetchDocumentOutput{}, fmt.Errorf("failed to fetch document: %w", err)
		}

		return nil, FetchDocumentOutput{
			Found:        true,
			ID:           doc.ID,
			Name:         doc.Name,
			Status:       doc.Status,
			DocumentType: doc.DocumentType,
			Subject:      doc.Subject,
			ClassLevel:   doc.ClassLevel,
			Summary:      doc.Summary,
			Headings:     doc.Headings,
			Content:      doc.ExtractedText,
			ChunkCount:   doc.ChunkCount,
			ErrorMessage: doc.ErrorMessage,
			UpdatedAt:    doc.UpdatedAt,
		}, nil
	}
}

// makeListHandler creates the list_documents tool handler.
func makeListHandler(store storage.Store) func(
	context.Context, *mcp.CallToolRequest, ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListDocumentsInput) (
		*mcp.CallToolResult, ListDocumentsOutput, error,
	) {
		docs, err := store.ListDocuments(ctx)
		if err != nil {
			return nil, ListDocumentsOutput{}, fmt.Errorf("failed to list documents: %w", err)
		}

		status := storage.Status(strings.ToLower(strings.TrimSpace(input.Status)))
		summaries := make([]DocumentSummary, 0, len(docs))
		for _, d := range docs {
			if status != "" && d.Status != status {
				continue
			}
			summaries = append(summaries, DocumentSummary{
				ID:           d.ID,
				Name:         d.Name,
				Status:       d.Status,
				DocumentType: d.DocumentType,
				Subject:      d.Subject,
				ClassLevel:   d.ClassLevel,
				ChunkCount:   d.ChunkCount,
				CreatedAt:    d.CreatedAt,
			})
		}

		return nil, ListDocumentsOutput{Documents: summaries, Count: len(summaries)}, nil
	}
}

// makeIngestHandler creates the ingest_text tool handler. Async requests go
// through the pool when one is configured.
func makeIngestHandler(pipeline *indexer.Pipeline, pool *indexer.Pool) func(
	context.Context, *mcp.CallToolRequest, IngestTextInput,
) (*mcp.CallToolResult, IngestTextOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IngestTextInput) (
		*mcp.CallToolResult, IngestTextOutput, error,
	) {
		if strings.TrimSpace(input.Text) == "" {
			return nil, IngestTextOutput{}, errors.New("text is required")
		}
		request := indexer.IngestRequest{
			Name:         input.Name,
			MimeType:     "text/plain",
			Text:         input.Text,
			OCRMethod:    "provided",
			DocumentType: input.DocumentType,
			Subject:      input.Subject,
			ClassLevel:   input.ClassLevel,
		}

		var (
			res *indexer.IngestResult
			err error
		)
		if input.Async && pool != nil {
			res, err = pool.Submit(ctx, request)
		} else {
			res, err = pipeline.Ingest(ctx, request)
		}
		if res == nil {
			return nil, IngestTextOutput{}, fmt.Errorf("ingest failed: %w", err)
		}

		out := IngestTextOutput{
			DocumentID: res.DocumentID,
			Status:     res.Status,
			Chunks:     res.Chunks,
		}
		if err != nil {
			out.Error = err.Error()
		}
		return nil, out, nil
	}
}

// makeStatusHandler creates the get_index_status tool handler.
func makeStatusHandler(searcher *search.Service) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		status, err := searcher.Status(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("storage_error: %w", err)
		}

		counts := map[string]int{
			string(storage.StatusPending):    0,
			string(storage.StatusProcessing): 0,
			string(storage.StatusCompleted):  0,
			string(storage.StatusFailed):     0,
		}
		for s, n := range status.Documents {
			counts[string(s)] = n
		}

		return nil, StatusOutput{
			Documents:      counts,
			TotalDocuments: status.TotalDocuments,
			TotalChunks:    status.Chunks,
			EmbeddingMode:  status.EmbeddingMode,
		}, nil
	}
}

// makeModelInfoHandler creates the get_model_info tool handler.
func makeModelInfoHandler(embedder search.Embedder) func(
	context.Context, *mcp.CallToolRequest, ModelInfoInput,
) (*mcp.CallToolResult, ModelInfoOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ModelInfoInput) (
		*mcp.CallToolResult, ModelInfoOutput, error,
	) {
		out := ModelInfoOutput{
			Mode:      embedder.Mode(),
			Dimension: embedder.Dimension(),
			Model:     embedder.ModelInfo(),
		}
		if out.Model == nil {
			out.Message = "No embedding model loaded; using deterministic hash embeddings."
		}
		return nil, out, nil
	}
}
