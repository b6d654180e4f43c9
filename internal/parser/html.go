package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/actgen/internal/htmldom"
	"golang.org/x/net/html"
)

// HTMLParser handles rendered HTML pages.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*Page, error) {
	doc, err := htmldom.ParseDocument(r)
	if err != nil {
		return nil, err
	}

	page := &Page{Title: stem(filename), Doc: doc}
	if title := findTitle(doc); title != "" {
		page.Title = title
	}
	return page, nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
