// Package mcp exposes project search as MCP tools over stdio, so agent
// tooling on the operator's machine can query indexed documentation
// directly.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/doc2mcp/doc2mcp/internal/project"
	"github.com/doc2mcp/doc2mcp/internal/search"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes documentation search tools.
type Server struct {
	store  *project.Store
	search *search.Service
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(store *project.Store, svc *search.Service) *Server {
	s := &Server{
		store:  store,
		search: svc,
	}

	s.mcp = server.NewMCPServer(
		"doc2mcp",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(listProjectsTool, s.handleListProjects)
	s.mcp.AddTool(searchProjectTool, s.handleSearchProject)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
