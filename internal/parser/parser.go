package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/actgen/internal/htmldom"
	"golang.org/x/net/html"
)

// Page is a parsed, marker-annotated page.
type Page struct {
	Title string
	Doc   *html.Node
}

// Root returns the first element matching selector, the subtree the
// component tree is generated from.
func (p *Page) Root(dom *htmldom.Document, selector string) (*html.Node, error) {
	found, err := dom.Find(p.Doc, selector)
	if err != nil {
		return nil, fmt.Errorf("select root %q: %w", selector, err)
	}
	return found[0], nil
}

// Parser converts raw page bytes into a Page.
type Parser interface {
	Parse(r io.Reader, filename string) (*Page, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".html":     true,
	".htm":      true,
	".md":       true,
	".markdown": true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
