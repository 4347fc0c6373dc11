package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/doc2mcp/doc2mcp/internal/index"
	"github.com/doc2mcp/doc2mcp/internal/project"
)

// handleListProjects returns every project with its lifecycle state.
func (s *Server) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.store.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing projects failed: %v", err)), nil
	}
	if len(projects) == 0 {
		return mcp.NewToolResultText("No projects yet. Upload documentation with `doc2mcp upload`."), nil
	}
	return mcp.NewToolResultText(formatProjects(projects)), nil
}

// handleSearchProject performs semantic search over one project's index.
func (s *Server) handleSearchProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: project"), nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	limit := request.GetInt("limit", 0)

	results, err := s.search.SearchLocal(ctx, slug, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No results found."), nil
	}
	return mcp.NewToolResultText(formatResults(slug, results)), nil
}

func formatProjects(projects []project.Project) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d project(s):\n\n", len(projects)))
	for _, p := range projects {
		sb.WriteString(fmt.Sprintf("- %s (slug: %s, status: %s, files: %d)\n",
			p.Name, p.Slug, p.Status, p.FileCount))
		if p.Error != "" {
			sb.WriteString(fmt.Sprintf("  error: %s\n", p.Error))
		}
	}
	return sb.String()
}

func formatResults(slug string, results []index.Result) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d result(s) from %s:\n\n", len(results), slug))
	for i, r := range results {
		sb.WriteString(fmt.Sprintf("## %d. %s (offset %d, score %.3f)\n\n", i+1, r.Source, r.Offset, r.Score))
		sb.WriteString(r.Content)
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
