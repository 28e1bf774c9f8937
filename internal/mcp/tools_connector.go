package mcpserver

import (
	"context"
	"fmt"
	"time"

	"csvpub/internal/domain"
	"csvpub/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerConnectorTools() {
	s.mcp.AddTool(mcp.NewTool("discover_schemas",
		mcp.WithDescription("Scan a CSV file glob, group files by exact header and infer a type for every column. Returns the discovered schemas; each carries a settings token identifying its member files."),
		mcp.WithString("fileGlob", mcp.Description("Glob pattern selecting CSV files, e.g. /data/*.csv"), mcp.Required()),
		mcp.WithBoolean("skipInference", mcp.Description("Leave every column untyped instead of sampling rows")),
	), s.handleDiscoverSchemas)

	s.mcp.AddTool(mcp.NewTool("preview_records",
		mcp.WithDescription("Read the first rows of a discovered schema as typed records without publishing anything"),
		mcp.WithString("schemaJSON", mcp.Description("A schema object as returned by discover_schemas, as JSON"), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Maximum rows to return (default 10)")),
	), s.handlePreviewRecords)

	s.mcp.AddTool(mcp.NewTool("publish_records",
		mcp.WithDescription("Run a full publish of a discovered schema and report the counts. Rows that fail type validation are counted as invalid, not dropped."),
		mcp.WithString("schemaJSON", mcp.Description("A schema object as returned by discover_schemas, as JSON"), mcp.Required()),
	), s.handlePublishRecords)

	s.mcp.AddTool(mcp.NewTool("list_schemas",
		mcp.WithDescription("List the schemas recorded by the most recent successful discovery"),
	), s.handleListSchemas)

	s.mcp.AddTool(mcp.NewTool("inspect_settings",
		mcp.WithDescription("Decode a schema settings token into its member file list"),
		mcp.WithString("settings", mcp.Description("Settings token from a discovered schema"), mcp.Required()),
	), s.handleInspectSettings)

	s.mcp.AddTool(mcp.NewTool("discovery_history",
		mcp.WithDescription("List recent discovery runs with their status, schema count and file count"),
		mcp.WithNumber("limit", mcp.Description("Maximum runs to return (default 20)")),
	), s.handleDiscoveryHistory)

	s.mcp.AddTool(mcp.NewTool("publish_history",
		mcp.WithDescription("List recent publish runs with record and invalid-record counts"),
		mcp.WithNumber("limit", mcp.Description("Maximum runs to return (default 20)")),
	), s.handlePublishHistory)
}

func (s *Server) handleDiscoverSchemas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	glob := req.GetString("fileGlob", "")
	if glob == "" {
		return nil, fmt.Errorf("fileGlob is required")
	}
	skip := getBool(req.GetArguments(), "skipInference", false)

	schemas, err := s.connector.Discover(ctx, domain.Settings{FileGlob: glob, SkipInference: skip})
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	if len(schemas) == 0 {
		return textResult(fmt.Sprintf("No CSV files matched %q.", glob)), nil
	}
	return jsonResult(map[string]any{"schemas": schemas})
}

func (s *Server) handlePreviewRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schema, err := schemaFromArgs(req)
	if err != nil {
		return nil, err
	}
	limit := int(getFloat(req.GetArguments(), "limit", 10))

	records, err := s.connector.Preview(ctx, schema, limit)
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}
	return jsonResult(records)
}

func (s *Server) handlePublishRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schema, err := schemaFromArgs(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	recs, errs := s.connector.Publish(ctx, service.PublishRequest{Schema: schema})

	var records, invalid int
	for rec := range recs {
		records++
		if rec.Invalid {
			invalid++
		}
	}
	if err := <-errs; err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}

	return jsonResult(map[string]any{
		"schema":     schema.Name,
		"records":    records,
		"invalid":    invalid,
		"durationMs": time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleListSchemas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schemas, err := s.connector.KnownSchemas()
	if err != nil {
		return nil, err
	}
	if len(schemas) == 0 {
		return textResult("No schemas in the catalog yet. Run discover_schemas first."), nil
	}
	return jsonResult(schemas)
}

func (s *Server) handleInspectSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token := req.GetString("settings", "")
	if token == "" {
		return nil, fmt.Errorf("settings is required")
	}

	files, err := domain.DecodeFileSet(token)
	if err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return jsonResult(map[string]any{"files": files})
}

func (s *Server) handleDiscoveryHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := int(getFloat(req.GetArguments(), "limit", 20))
	runs, err := s.connector.DiscoveryHistory(limit)
	if err != nil {
		return nil, err
	}
	return jsonResult(runs)
}

func (s *Server) handlePublishHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := int(getFloat(req.GetArguments(), "limit", 20))
	runs, err := s.connector.PublishHistory(limit)
	if err != nil {
		return nil, err
	}
	return jsonResult(runs)
}

// schemaFromArgs parses the schemaJSON argument shared by the preview
// and publish tools.
func schemaFromArgs(req mcp.CallToolRequest) (domain.Schema, error) {
	schemaStr := req.GetString("schemaJSON", "")
	if schemaStr == "" {
		return domain.Schema{}, fmt.Errorf("schemaJSON is required")
	}

	var schema domain.Schema
	if err := parseJSON(schemaStr, &schema); err != nil {
		return domain.Schema{}, fmt.Errorf("parse schema: %w", err)
	}
	if schema.Settings == "" {
		return domain.Schema{}, fmt.Errorf("schema has no settings token; pass a schema from discover_schemas")
	}
	return schema, nil
}

// getFloat reads a numeric tool argument with a fallback.
func getFloat(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return fallback
}

// getBool reads a boolean tool argument with a fallback.
func getBool(args map[string]any, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}
