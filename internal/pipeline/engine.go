package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dgallion1/actgen/internal/act"
	"github.com/dgallion1/actgen/internal/components"
	"github.com/dgallion1/actgen/internal/htmldom"
	"github.com/dgallion1/actgen/internal/parser"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
	xhtml "golang.org/x/net/html"
)

// Tree is a component tree over x/net/html nodes.
type Tree = act.Tree[*xhtml.Node]

// Result is the outcome of generating one page.
type Result struct {
	PageID string `json:"page_id"`
	Title  string `json:"title"`
	Tree   *Tree  `json:"tree"`
}

// EngineConfig controls page generation.
type EngineConfig struct {
	RootSelector string
	Minify       bool
}

// Engine loads pages and generates their component trees. It is safe for
// concurrent use.
type Engine struct {
	dom      *htmldom.Document
	gen      *act.Generator[*xhtml.Node]
	cfg      EngineConfig
	minifier *minify.M
	stats    *Stats
	log      *slog.Logger
}

func NewEngine(set *components.Set, cfg EngineConfig, stats *Stats, log *slog.Logger) *Engine {
	if cfg.RootSelector == "" {
		cfg.RootSelector = "body"
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	dom := htmldom.New()
	e := &Engine{
		dom:   dom,
		gen:   act.New[*xhtml.Node](dom, set.Templates(), log),
		cfg:   cfg,
		stats: stats,
		log:   log,
	}
	if cfg.Minify {
		e.minifier = minify.New()
		e.minifier.Add("text/html", &html.Minifier{
			KeepDocumentTags:    true,
			KeepEndTags:         true,
			KeepQuotes:          true,
			KeepDefaultAttrVals: true,
		})
	}
	return e
}

// Stats returns the latency tracker shared by every run.
func (e *Engine) Stats() *Stats {
	return e.stats
}

// Load parses raw page bytes according to the filename extension.
func (e *Engine) Load(data []byte, filename string) (*parser.Page, error) {
	p, err := parser.ForFile(filename)
	if err != nil {
		return nil, err
	}
	page, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	return page, nil
}

// Generate builds the tree below the element matching selector, or the
// configured default root when selector is empty.
func (e *Engine) Generate(page *parser.Page, selector string) (*Tree, error) {
	if selector == "" {
		selector = e.cfg.RootSelector
	}
	root, err := page.Root(e.dom, selector)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	tree, err := e.gen.Generate(root)
	if err != nil {
		return nil, err
	}
	if e.minifier != nil {
		if err := e.minifyTree(tree); err != nil {
			return nil, err
		}
	}
	elapsed := time.Since(start)
	if e.stats != nil {
		e.stats.Record(elapsed.Milliseconds(), len(tree.Issues))
	}
	e.log.Info("page generated",
		"title", page.Title,
		"root", selector,
		"nodes", tree.Len(),
		"issues", len(tree.Issues),
		"duration_ms", elapsed.Milliseconds(),
	)
	return tree, nil
}

// Run loads data and generates its tree in one step.
func (e *Engine) Run(data []byte, filename, selector string) (*Result, error) {
	page, err := e.Load(data, filename)
	if err != nil {
		return nil, err
	}
	tree, err := e.Generate(page, selector)
	if err != nil {
		return nil, err
	}
	return &Result{PageID: PageID(data), Title: page.Title, Tree: tree}, nil
}

func (e *Engine) minifyTree(tree *Tree) error {
	shrink := func(s string) (string, error) {
		if s == "" {
			return s, nil
		}
		out, err := e.minifier.String("text/html", s)
		if err != nil {
			return "", fmt.Errorf("minify template: %w", err)
		}
		return out, nil
	}

	var err error
	if tree.Template, err = shrink(tree.Template); err != nil {
		return err
	}
	tree.Walk(func(_ []string, n *act.Node[*xhtml.Node]) {
		if err != nil {
			return
		}
		n.Template, err = shrink(n.Template)
	})
	return err
}

// PageID derives a stable identifier from page content.
func PageID(data []byte) string {
	return ContentHashHex(data)[:16]
}
