package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/doc2mcp/doc2mcp/internal/chunker"
	"github.com/doc2mcp/doc2mcp/internal/db"
	"github.com/doc2mcp/doc2mcp/internal/endpoint"
	"github.com/doc2mcp/doc2mcp/internal/index"
	"github.com/doc2mcp/doc2mcp/internal/ingest"
	"github.com/doc2mcp/doc2mcp/internal/project"
	"github.com/doc2mcp/doc2mcp/internal/search"
	"github.com/doc2mcp/doc2mcp/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the doc2mcp server",
	Long:  `Starts the doc2mcp server with the project upload API, semantic search, and per-project MCP retrieval endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		embedder, err := createEmbedderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}

		dbPath := filepath.Join(cfg.DataDir, "doc2mcp.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		store := project.NewStore(database)
		idx := index.New(embedder)
		hub := project.NewHub()
		pipeline := ingest.New(store, idx, chunker.Config{
			MaxChars:     cfg.Chunking.MaxChars,
			OverlapChars: cfg.Chunking.OverlapChars,
		}, hub)
		defer pipeline.Close()

		srv := server.New(cfg.Server)
		resolver := endpoint.NewResolver(cfg.Server.BaseURL)

		r := srv.Router()
		project.RegisterRoutes(r, store, pipeline, hub, resolver)
		search.RegisterRoutes(r, search.NewService(store, idx))

		// Indexes live in memory; re-enqueue every project so ready ones
		// are searchable again after a restart and interrupted runs resume.
		projects, err := store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing projects: %w", err)
		}
		for _, p := range projects {
			pipeline.Enqueue(p.ID)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "doc2mcp server v%s starting on port %d\n", Version, cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  Embedder: %s\n", embedder.Name())
		fmt.Fprintf(os.Stderr, "  Projects: %d\n", len(projects))

		return srv.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
