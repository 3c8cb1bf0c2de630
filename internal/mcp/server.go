// Package mcp exposes the documentation query tool over the Model Context
// Protocol.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fabricux/docsmcp/internal/config"
	"github.com/fabricux/docsmcp/internal/docs"
	"github.com/fabricux/docsmcp/internal/embedding"
	"github.com/fabricux/docsmcp/internal/store"
)

// Version is set by the caller (main) before Run.
var Version = "dev"

const maxResultCount = 50

// Server holds the query tool's dependencies. Both are injected at
// construction time; there is no package-level mutable state.
type Server struct {
	store store.VectorStore
	embed embedding.Provider
}

// New creates a Server. embed may be nil when the provider failed to
// initialize; the tool then answers with a typed not-ready error instead of
// crashing mid-request.
func New(st store.VectorStore, embed embedding.Provider) *Server {
	return &Server{store: st, embed: embed}
}

// Run serves the MCP tool surface on stdio until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "docsmcp",
		Version: Version,
	}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "ask_documentation",
		Description: "Query the indexed product documentation using semantic search.\n\n" +
			"Args:\n" +
			"  query: Natural language question or topic to search for\n" +
			fmt.Sprintf("  result_count: Maximum number of document chunks to return (default %d)\n\n", config.DefaultResultCount) +
			"Returns the most relevant documentation chunks with title, source path, section, and similarity score.",
	}, s.handleAsk)

	return srv.Run(ctx, &mcp.StdioTransport{})
}

type askInput struct {
	Query       string `json:"query" jsonschema:"Natural language question to search the documentation for"`
	ResultCount int    `json:"result_count,omitempty" jsonschema:"Maximum number of chunks to return (default 8)"`
}

func (s *Server) handleAsk(ctx context.Context, req *mcp.CallToolRequest, input askInput) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(input.Query) == "" {
		return errorResult("Query must not be empty."), nil, nil
	}
	if s.embed == nil {
		return errorResult("Embedding provider is not ready. Please try again later."), nil, nil
	}

	topK := input.ResultCount
	if topK <= 0 {
		topK = config.DefaultResultCount
	}
	if topK > maxResultCount {
		topK = maxResultCount
	}

	queryVec, err := s.embed.EmbedQuery(input.Query)
	if err != nil {
		return errorResult(fmt.Sprintf("Error embedding query: %v", err)), nil, nil
	}

	matches, err := s.store.Query(queryVec, topK)
	if err != nil {
		return errorResult(fmt.Sprintf("Error during search: %v", err)), nil, nil
	}

	lines := docs.FormatMatches(matches)
	content := make([]mcp.Content, 0, len(lines))
	for _, line := range lines {
		content = append(content, &mcp.TextContent{Text: line})
	}
	return &mcp.CallToolResult{Content: content}, nil, nil
}

// errorResult wraps a human-readable explanation in an error-shaped tool
// result. The output is never empty.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}
