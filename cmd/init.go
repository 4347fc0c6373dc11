package cmd

import (
	"github.com/spf13/cobra"

	"github.com/doc2mcp/doc2mcp/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a doc2mcp configuration interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
