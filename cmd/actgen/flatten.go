package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgallion1/actgen/internal/act"
	"github.com/dgallion1/actgen/internal/htmldom"
	"github.com/dgallion1/actgen/internal/parser"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

func newFlattenCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "flatten FILE",
		Short: "List the chrome markers of a page with their nesting levels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read page: %w", err)
			}
			name := filepath.Base(args[0])
			p, err := parser.ForFile(name)
			if err != nil {
				return err
			}
			page, err := p.Parse(bytes.NewReader(data), name)
			if err != nil {
				return err
			}

			dom := htmldom.New()
			el, err := page.Root(dom, root)
			if err != nil {
				return err
			}
			flat, err := act.Flatten[*html.Node](dom, el)
			if err != nil {
				return err
			}
			if flat == nil {
				flat = []act.FlatChrome[*html.Node]{}
			}
			return writeJSON(cmd.OutOrStdout(), "", flat)
		},
	}
	cmd.Flags().StringVarP(&root, "root", "r", "body", "CSS selector of the generation root")
	return cmd
}
