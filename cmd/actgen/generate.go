package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/actgen/internal/act"
	"github.com/dgallion1/actgen/internal/components"
	"github.com/dgallion1/actgen/internal/pipeline"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

type generateOptions struct {
	root       string
	components string
	minify     bool
	output     string
	flat       bool
}

// flatNode is one entry of --flat output.
type flatNode struct {
	Path       string   `json:"path"`
	Kind       act.Kind `json:"kind"`
	FieldType  string   `json:"field_type,omitempty"`
	IsFragment bool     `json:"is_fragment"`
	Template   string   `json:"template"`
}

func newGenerateCmd(logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:     "generate FILE",
		Aliases: []string{"g"},
		Short:   "Generate the component tree for a page",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args[0], opts, logger(cmd))
		},
	}

	cmd.Flags().StringVarP(&opts.root, "root", "r", "body", "CSS selector of the generation root")
	cmd.Flags().StringVarP(&opts.components, "components", "c", "", "YAML file with component templates")
	cmd.Flags().BoolVar(&opts.minify, "minify", false, "Minify every template")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write JSON to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.flat, "flat", false, "Emit one entry per node keyed by id path")
	return cmd
}

func runGenerate(cmd *cobra.Command, path string, opts generateOptions, log *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read page: %w", err)
	}

	set := components.Default()
	if opts.components != "" {
		if set, err = components.Load(opts.components); err != nil {
			return err
		}
	}

	engine := pipeline.NewEngine(set, pipeline.EngineConfig{
		RootSelector: opts.root,
		Minify:       opts.minify,
	}, nil, log)
	res, err := engine.Run(data, filepath.Base(path), opts.root)
	if err != nil {
		return err
	}

	if len(res.Tree.Issues) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d node(s) with extraction issues\n", len(res.Tree.Issues))
	}

	if !opts.flat {
		return writeJSON(cmd.OutOrStdout(), opts.output, res)
	}

	nodes := []flatNode{{Path: "", Template: res.Tree.Template}}
	res.Tree.Walk(func(p []string, n *act.Node[*html.Node]) {
		nodes = append(nodes, flatNode{
			Path:       strings.Join(p, "/"),
			Kind:       n.Kind,
			FieldType:  n.FieldType,
			IsFragment: n.IsFragment,
			Template:   n.Template,
		})
	})
	return writeJSON(cmd.OutOrStdout(), opts.output, map[string]any{
		"page_id": res.PageID,
		"title":   res.Title,
		"nodes":   nodes,
		"issues":  res.Tree.Issues,
	})
}
