package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doc2mcp/doc2mcp/internal/client"
)

var (
	searchToken string
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search <slug> <query>...",
	Short: "Search a project's documentation",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug := args[0]
		query := strings.Join(args[1:], " ")

		token := searchToken
		if token == "" {
			token = os.Getenv("DOC2MCP_TOKEN")
		}

		c := client.New(serverURL)
		resp, err := c.Search(cmd.Context(), slug, token, query, searchLimit)
		if err != nil {
			return err
		}
		if len(resp.Results) == 0 {
			fmt.Println("No results.")
			return nil
		}

		for i, r := range resp.Results {
			fmt.Printf("%d. %s (offset %d, score %.3f)\n", i+1, r.Source, r.Offset, r.Score)
			fmt.Println(indent(r.Content, "   "))
			fmt.Println()
		}
		return nil
	},
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func init() {
	searchCmd.Flags().StringVar(&searchToken, "token", "", "project API token (or set DOC2MCP_TOKEN)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum number of results")
	rootCmd.AddCommand(searchCmd)
}
