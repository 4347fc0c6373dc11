package main

import (
	"os"

	"github.com/doc2mcp/doc2mcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
