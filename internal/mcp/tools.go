package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listProjectsTool defines the list_projects MCP tool.
var listProjectsTool = mcp.NewTool("list_projects",
	mcp.WithDescription("List all documentation projects with their slug, status, and file count."),
)

// searchProjectTool defines the search_project MCP tool.
var searchProjectTool = mcp.NewTool("search_project",
	mcp.WithDescription("Search a documentation project semantically. Returns the most relevant chunks with their source file."),
	mcp.WithString("project",
		mcp.Required(),
		mcp.Description("Project slug (or ID) to search"),
	),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
)
