// Package mcp implements the MCP server exposing embedding and similarity
// search tools over the selected backend.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/marekhanus/vecfall/pkg/provider"
	"github.com/marekhanus/vecfall/pkg/types"
)

// Server implements the MCP server.
type Server struct {
	mcpServer *server.MCPServer
	embedding provider.EmbeddingProvider
	store     provider.VectorStore
}

// Config contains server configuration.
type Config struct {
	Embedding provider.EmbeddingProvider
	Store     provider.VectorStore
}

// New creates a new MCP server.
func New(cfg Config) (*Server, error) {
	if cfg.Embedding == nil {
		return nil, fmt.Errorf("%w: embedding provider is required", types.ErrInvalidConfig)
	}

	s := &Server{
		embedding: cfg.Embedding,
		store:     cfg.Store,
	}

	mcpServer := server.NewMCPServer(
		"vecfall",
		"0.1.0",
		server.WithLogging(),
	)
	s.registerTools(mcpServer)
	s.mcpServer = mcpServer

	return s, nil
}

func (s *Server) registerTools(srv *server.MCPServer) {
	srv.AddTool(mcp.NewTool("embed_text",
		mcp.WithDescription("Generate an embedding vector for a text"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to embed")),
	), s.handleEmbedText)

	srv.AddTool(mcp.NewTool("get_status",
		mcp.WithDescription("Get the selected embedding backend and store statistics"),
	), s.handleGetStatus)

	if s.store != nil {
		srv.AddTool(mcp.NewTool("store_document",
			mcp.WithDescription("Embed a document and store it for similarity search"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Document ID")),
			mcp.WithString("content", mcp.Required(), mcp.Description("Document text")),
			mcp.WithString("metadata", mcp.Description("Opaque metadata attached to the document")),
		), s.handleStoreDocument)

		srv.AddTool(mcp.NewTool("search_similar",
			mcp.WithDescription("Find stored documents similar to a query text"),
			mcp.WithString("query", mcp.Required(), mcp.Description("Query text")),
			mcp.WithNumber("limit", mcp.Description("Maximum results (default 10)")),
		), s.handleSearchSimilar)
	}
}

func (s *Server) handleEmbedText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	vec, err := s.embedding.Embed(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("embedding failed: %v", err)), nil
	}

	result := map[string]any{
		"backend":    s.embedding.Name(),
		"dimensions": len(vec),
		"embedding":  vec,
	}
	jsonResult, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(jsonResult)), nil
}

func (s *Server) handleGetStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := map[string]any{
		"backend":    s.embedding.Name(),
		"dimensions": s.embedding.Dimensions(),
	}

	if s.store != nil {
		stats, err := s.store.Stats()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get stats: %v", err)), nil
		}
		result["store"] = s.store.Name()
		result["documents"] = stats.Documents
		if !stats.LastUpsert.IsZero() {
			result["last_upsert"] = stats.LastUpsert.Format(time.RFC3339)
		}
	}

	jsonResult, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonResult)), nil
}

func (s *Server) handleStoreDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	content := req.GetString("content", "")
	if id == "" || content == "" {
		return mcp.NewToolResultError("id and content are required"), nil
	}

	vec, err := s.embedding.Embed(ctx, content)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("embedding failed: %v", err)), nil
	}

	doc := &types.Document{
		ID:        id,
		Content:   content,
		Metadata:  req.GetString("metadata", ""),
		Embedding: vec,
	}
	if err := s.store.Upsert(ctx, []*types.Document{doc}); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("store failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("stored document %s (%d dimensions)", id, len(vec))), nil
}

func (s *Server) handleSearchSimilar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	limit := req.GetInt("limit", 10)

	vec, err := s.embedding.Embed(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("embedding failed: %v", err)), nil
	}

	results, err := s.store.Query(ctx, vec, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	type hit struct {
		ID       string  `json:"id"`
		Content  string  `json:"content"`
		Metadata string  `json:"metadata,omitempty"`
		Distance float64 `json:"distance"`
	}
	hits := make([]hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, hit{
			ID:       r.Document.ID,
			Content:  r.Document.Content,
			Metadata: r.Document.Metadata,
			Distance: r.Distance,
		})
	}

	jsonResult, _ := json.MarshalIndent(hits, "", "  ")
	return mcp.NewToolResultText(string(jsonResult)), nil
}

// ServeStdio starts the MCP server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
