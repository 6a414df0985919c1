package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ocragent/ocr-agent-pro/internal/indexer"
	"github.com/ocragent/ocr-agent-pro/internal/search"
	"github.com/ocragent/ocr-agent-pro/internal/storage"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server *mcp.Server
}

// Config holds server dependencies. Pool is optional.
type Config struct {
	Store    storage.Store
	Search   *search.Service
	Embedder search.Embedder
	Pipeline *indexer.Pipeline
	Pool     *indexer.Pool
	Version  string
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	impl := &mcp.Implementation{
		Name:    "ocr-agent-pro",
		Version: version,
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_chunks",
		Description: "Semantic search over ingested school documents. Returns the best matching text chunks with their document names and similarity scores.",
	}, makeSearchHandler(cfg.Search))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_document",
		Description: "Retrieve a document by ID, including its extracted text, classification and processing status.",
	}, makeFetchHandler(cfg.Store))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List ingested documents newest first, optionally filtered by processing status.",
	}, makeListHandler(cfg.Store))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_text",
		Description: "Chunk, embed and store extracted document text so it becomes searchable.",
	}, makeIngestHandler(cfg.Pipeline, cfg.Pool))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_index_status",
		Description: "Get document counts by processing status, the total chunk count and the embedding mode.",
	}, makeStatusHandler(cfg.Search))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_model_info",
		Description: "Describe the embedding model in use, or report that hash fallback embeddings are active.",
	}, makeModelInfoHandler(cfg.Embedder))

	return &Server{server: server}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
