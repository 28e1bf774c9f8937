package mcpserver

import (
	"encoding/json"
	"fmt"

	"csvpub/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Server is the MCP facade over the connector.
// It exposes discovery, previewing and run history as tools so AI
// agents can inspect CSV sources without speaking the RPC surface.
type Server struct {
	mcp       *server.MCPServer
	connector *service.ConnectorService
	log       *zap.SugaredLogger
}

// Deps holds the dependencies passed from main to the MCP server.
type Deps struct {
	Connector *service.ConnectorService
	Log       *zap.SugaredLogger
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	s := &Server{
		connector: deps.Connector,
		log:       deps.Log,
	}

	s.mcp = server.NewMCPServer(
		"csvpub-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerConnectorTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout. Stdout carries the
// JSON-RPC transport, so all logging stays on stderr.
func (s *Server) ServeStdio() error {
	s.log.Infow("starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}
