package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/doc2mcp/doc2mcp/internal/client"
	"github.com/doc2mcp/doc2mcp/internal/project"
)

var (
	uploadName        string
	uploadDescription string
	uploadProject     string
	uploadNoWait      bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <glob>...",
	Short: "Upload documentation files as a new project",
	Long: `Uploads the files matched by the given glob patterns (doublestar
patterns like docs/**/*.md are supported) and waits for indexing to finish.
Use --project to replace the documents of an existing project instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := collectFiles(args)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no files matched the given patterns")
		}

		c := client.New(serverURL)
		ctx := cmd.Context()

		var p *project.Project
		if uploadProject != "" {
			p, err = c.Reupload(ctx, uploadProject, files)
		} else {
			name := uploadName
			if name == "" {
				name = filepath.Base(mustGetwd())
			}
			p, err = c.CreateProject(ctx, name, uploadDescription, files)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Uploaded %d file(s) to project %s (slug: %s)\n", len(files), p.Name, p.Slug)
		if p.APIToken != "" {
			fmt.Printf("API token (shown only once): %s\n", p.APIToken)
		}
		if p.MCPEndpoint != "" {
			fmt.Printf("MCP endpoint: %s\n", p.MCPEndpoint)
		}

		if uploadNoWait {
			return nil
		}

		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("indexing"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSpinnerType(14),
		)
		done := make(chan struct{})
		go func() {
			for {
				select {
				case <-done:
					return
				case <-time.After(100 * time.Millisecond):
					bar.Add(1)
				}
			}
		}()

		ready, err := c.WaitReady(ctx, p.ID, time.Second)
		close(done)
		bar.Finish()
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return err
		}

		fmt.Printf("Project %s is ready (%d files indexed).\n", ready.Slug, ready.FileCount)
		return nil
	},
}

// collectFiles expands the glob patterns and reads every match, in a stable
// order so upload manifests are deterministic.
func collectFiles(patterns []string) ([]project.FileUpload, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)

	files := make([]project.FileUpload, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		files = append(files, project.FileUpload{
			Name:    filepath.ToSlash(path),
			Content: string(content),
		})
	}
	return files, nil
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "project"
	}
	return wd
}

func init() {
	uploadCmd.Flags().StringVar(&uploadName, "name", "", "project name (defaults to the current directory name)")
	uploadCmd.Flags().StringVar(&uploadDescription, "description", "", "project description")
	uploadCmd.Flags().StringVar(&uploadProject, "project", "", "replace the documents of an existing project (slug or ID)")
	uploadCmd.Flags().BoolVar(&uploadNoWait, "no-wait", false, "return immediately instead of waiting for indexing")
	rootCmd.AddCommand(uploadCmd)
}
