// Package mcp exposes the question-answering pipeline as Model Context
// Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/foodscope/foodscope/application/service"
)

// Server wraps the MCP server with foodscope tools.
type Server struct {
	mcpServer *server.MCPServer
	rag       *service.RAG
	logger    *slog.Logger
}

// NewServer creates an MCP server over the given RAG service.
func NewServer(rag *service.RAG, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{rag: rag, logger: logger}

	mcpServer := server.NewMCPServer(
		"foodscope",
		version,
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)
	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	askTool := mcp.NewTool("ask",
		mcp.WithDescription("Answer a question about U.S. county food environments and health, grounded in indexed county profiles"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question to answer"),
		),
	)
	mcpServer.AddTool(askTool, s.handleAsk)

	retrieveTool := mcp.NewTool("retrieve",
		mcp.WithDescription("Retrieve the county profiles most similar to a query, without generating an answer"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The retrieval query"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Number of profiles to return (default: 10)"),
		),
	)
	mcpServer.AddTool(retrieveTool, s.handleRetrieve)
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}

	answer, err := s.rag.Ask(ctx, query)
	if err != nil {
		s.logger.Error("ask failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
	}

	type sourceResult struct {
		County     string  `json:"county"`
		State      string  `json:"state"`
		IsHighRisk bool    `json:"is_high_risk"`
		Similarity float64 `json:"similarity"`
	}
	type askResult struct {
		Answer  string         `json:"answer"`
		Sources []sourceResult `json:"sources"`
	}

	result := askResult{Answer: answer.Text()}
	for _, src := range answer.Sources() {
		result.Sources = append(result.Sources, sourceResult{
			County:     src.County(),
			State:      src.State(),
			IsHighRisk: src.HighRisk(),
			Similarity: src.Similarity(),
		})
	}

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleRetrieve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}
	topK := request.GetInt("top_k", 0)

	hits, err := s.rag.Retrieve(ctx, query, topK)
	if err != nil {
		s.logger.Error("retrieve failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("retrieve failed: %v", err)), nil
	}

	type hitResult struct {
		County     string  `json:"county"`
		State      string  `json:"state"`
		Text       string  `json:"text"`
		Similarity float64 `json:"similarity"`
	}

	results := make([]hitResult, len(hits))
	for i, hit := range hits {
		meta := hit.Chunk().Metadata()
		results[i] = hitResult{
			County:     meta.County,
			State:      meta.State,
			Text:       hit.Chunk().Text(),
			Similarity: hit.Similarity(),
		}
	}

	jsonBytes, err := json.Marshal(results)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// MCPServer returns the underlying MCP server for stdio serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
