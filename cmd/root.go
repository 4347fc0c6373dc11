package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	serverURL string
)

var rootCmd = &cobra.Command{
	Use:   "doc2mcp",
	Short: "Turn documentation into a searchable MCP endpoint",
	Long: `doc2mcp ingests documentation files, indexes them for semantic search,
and serves each project at a stable MCP retrieval endpoint that agent
tooling can query with a natural language question.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".doc2mcp.yml", "config file path")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:5000", "doc2mcp server URL")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
