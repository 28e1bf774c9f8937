package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("map_csv_directory",
		mcp.WithPromptDescription("Discover the schemas in a directory of CSV files and summarize what each holds"),
		mcp.WithArgument("fileGlob",
			mcp.ArgumentDescription("Glob pattern selecting the CSV files to map"),
			mcp.RequiredArgument(),
		),
	), s.handleMapDirectoryPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("audit_data_quality",
		mcp.WithPromptDescription("Check a discovered schema for rows that fail type validation"),
		mcp.WithArgument("schemaName",
			mcp.ArgumentDescription("Name of a schema from list_schemas"),
			mcp.RequiredArgument(),
		),
	), s.handleAuditQualityPrompt)
}

func (s *Server) handleMapDirectoryPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	glob := req.Params.Arguments["fileGlob"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Map the CSV files matching: %s", glob),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Map the CSV files matching "%s". Follow these steps:

1. Run discover_schemas with that glob to group the files by header
2. For each schema, use inspect_settings to see which files it covers
3. Use preview_records on each schema to look at a few sample rows
4. Summarize what each schema holds: column names, inferred types, member files, and anything notable in the sample data

Keep the summary short, one paragraph per schema.`, glob),
				},
			},
		},
	}, nil
}

func (s *Server) handleAuditQualityPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := req.Params.Arguments["schemaName"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Audit data quality for schema: %s", name),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Audit the data quality of the "%s" schema. Follow these steps:

1. Use list_schemas and find the schema named "%s"
2. Run publish_records on it to get the total and invalid record counts
3. If any records were invalid, run preview_records with a generous limit and collect the error messages of invalid rows
4. Report: how many rows failed validation, which columns they failed on, and whether the failures look like bad data or like a column that was inferred too narrowly

If every record is valid, say so and stop.`, name, name),
				},
			},
		},
	}, nil
}
