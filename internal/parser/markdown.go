package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/actgen/internal/htmldom"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown pages. Raw HTML is passed through so
// chrome markers written inline survive rendering.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*Page, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithRendererOptions(gmhtml.WithUnsafe()))
	doc := md.Parser().Parse(text.NewReader(src))

	title := firstHeading(doc, src)
	if title == "" {
		title = stem(filename)
	}

	var body bytes.Buffer
	if err := md.Renderer().Render(&body, src, doc); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	var page strings.Builder
	page.WriteString("<!DOCTYPE html><html><head></head><body>")
	page.Write(body.Bytes())
	page.WriteString("</body></html>")

	root, err := htmldom.ParseDocument(strings.NewReader(page.String()))
	if err != nil {
		return nil, err
	}
	return &Page{Title: title, Doc: root}, nil
}

// firstHeading returns the text of the first level-1 heading.
func firstHeading(doc ast.Node, src []byte) string {
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			return strings.TrimSpace(string(h.Text(src)))
		}
	}
	return ""
}
