package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/actgen/internal/act"
	"github.com/dgallion1/actgen/internal/htmldom"
)

func TestHTMLParser_Title(t *testing.T) {
	input := `<html><head><title>  Home Page </title></head><body><p>hi</p></body></html>`
	p := &HTMLParser{}
	page, err := p.Parse(strings.NewReader(input), "index.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Title != "Home Page" {
		t.Errorf("expected title %q, got %q", "Home Page", page.Title)
	}
}

func TestHTMLParser_TitleFallsBackToFilename(t *testing.T) {
	p := &HTMLParser{}
	page, err := p.Parse(strings.NewReader(`<p>no title</p>`), "/tmp/about.htm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Title != "about" {
		t.Errorf("expected title %q, got %q", "about", page.Title)
	}
}

func TestPage_RootMissing(t *testing.T) {
	p := &HTMLParser{}
	page, err := p.Parse(strings.NewReader(`<div id="a"></div>`), "x.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = page.Root(htmldom.New(), "#missing")
	if !errors.Is(err, act.ErrNoMatch) {
		t.Errorf("expected ErrNoMatch, got %v", err)
	}
}

func TestForFile(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"a.html", "*parser.HTMLParser"},
		{"a.HTM", "*parser.HTMLParser"},
		{"a.md", "*parser.MarkdownParser"},
		{"a.markdown", "*parser.MarkdownParser"},
	}
	for _, tc := range cases {
		p, err := ForFile(tc.name)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		switch p.(type) {
		case *HTMLParser:
			if tc.want != "*parser.HTMLParser" {
				t.Errorf("%s: expected %s, got HTMLParser", tc.name, tc.want)
			}
		case *MarkdownParser:
			if tc.want != "*parser.MarkdownParser" {
				t.Errorf("%s: expected %s, got MarkdownParser", tc.name, tc.want)
			}
		}
	}

	if _, err := ForFile("a.pdf"); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if IsSupportedExtension("a.txt") {
		t.Error("expected .txt to be unsupported")
	}
	if !IsSupportedExtension("A.HTML") {
		t.Error("expected .HTML to be supported")
	}
}
