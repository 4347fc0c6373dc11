package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/doc2mcp/doc2mcp/internal/chunker"
	"github.com/doc2mcp/doc2mcp/internal/db"
	"github.com/doc2mcp/doc2mcp/internal/index"
	"github.com/doc2mcp/doc2mcp/internal/ingest"
	"github.com/doc2mcp/doc2mcp/internal/mcp"
	"github.com/doc2mcp/doc2mcp/internal/project"
	"github.com/doc2mcp/doc2mcp/internal/search"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long: `Starts an MCP server over stdio exposing list_projects and
search_project tools against the local doc2mcp database. Point your
agent tooling at this command to search indexed documentation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		embedder, err := createEmbedderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}

		database, err := db.Open(filepath.Join(cfg.DataDir, "doc2mcp.db"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		store := project.NewStore(database)
		idx := index.New(embedder)

		// Rebuild indexes for ready projects so the tools can search them.
		// Logging stays on stderr; stdout carries the MCP protocol.
		pipeline := ingest.New(store, idx, chunker.Config{
			MaxChars:     cfg.Chunking.MaxChars,
			OverlapChars: cfg.Chunking.OverlapChars,
		}, project.NewHub())
		projects, err := store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing projects: %w", err)
		}
		for _, p := range projects {
			pipeline.Enqueue(p.ID)
		}
		pipeline.Wait()

		srv := mcp.NewServer(store, search.NewService(store, idx))
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
