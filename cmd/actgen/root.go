package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "actgen",
		Short: "Build abstract component trees from chrome-annotated pages",
		Long: `actgen reads a rendered page carrying placeholder, rendering and field
chrome markers and produces the component tree with a template per node.

Examples:
  actgen generate page.html                  # Tree for <body> as JSON
  actgen generate page.html --root '#main'   # Tree below #main
  actgen generate page.md --flat -o out.json # One entry per node, to a file
  actgen flatten page.html                   # Marker list with levels`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log extraction issues to stderr")

	logger := func(cmd *cobra.Command) *slog.Logger {
		level := slog.LevelError + 1
		if verbose {
			level = slog.LevelDebug
		}
		return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	}

	root.AddCommand(newGenerateCmd(logger))
	root.AddCommand(newFlattenCmd())
	return root
}

// writeJSON writes v indented to path, or to w when path is empty.
func writeJSON(w io.Writer, path string, v any) error {
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
