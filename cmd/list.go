package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/doc2mcp/doc2mcp/internal/client"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(serverURL)
		projects, err := c.ListProjects(cmd.Context())
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			fmt.Println("No projects. Upload documentation with `doc2mcp upload`.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SLUG\tNAME\tSTATUS\tFILES\tENDPOINT")
		for _, p := range projects {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", p.Slug, p.Name, p.Status, p.FileCount, p.MCPEndpoint)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
