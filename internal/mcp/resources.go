package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"csvpub/internal/domain"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerResources() {
	// ── csvpub://schemas ───────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"csvpub://schemas",
		"Discovered Schemas",
		mcp.WithMIMEType("application/json"),
	), s.handleSchemasResource)

	// ── csvpub://schema/{name}/files ───────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"csvpub://schema/{name}/files",
			"Member Files of a Schema",
		),
		s.handleSchemaFilesResource,
	)
}

func (s *Server) handleSchemasResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	schemas, err := s.connector.KnownSchemas()
	if err != nil {
		return nil, err
	}

	type schemaSummary struct {
		Name       string `json:"name"`
		Properties int    `json:"properties"`
		Files      int    `json:"files"`
	}

	summaries := make([]schemaSummary, 0, len(schemas))
	for _, sc := range schemas {
		files, _ := domain.DecodeFileSet(sc.Settings)
		summaries = append(summaries, schemaSummary{
			Name:       sc.Name,
			Properties: len(sc.Properties),
			Files:      len(files),
		})
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "csvpub://schemas",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleSchemaFilesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	name := extractSchemaName(uri)
	if name == "" {
		return nil, fmt.Errorf("could not extract schema name from URI: %s", uri)
	}

	schemas, err := s.connector.KnownSchemas()
	if err != nil {
		return nil, err
	}
	for _, sc := range schemas {
		if sc.Name != name {
			continue
		}
		files, err := domain.DecodeFileSet(sc.Settings)
		if err != nil {
			return nil, err
		}
		data, _ := json.MarshalIndent(files, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
	return nil, fmt.Errorf("no schema named %q in the catalog", name)
}

// extractSchemaName extracts the name from "csvpub://schema/{name}/files".
func extractSchemaName(uri string) string {
	const prefix = "csvpub://schema/"
	const suffix = "/files"
	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
}
