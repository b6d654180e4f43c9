// Package htmldom implements act.Document over golang.org/x/net/html trees,
// with CSS selectors evaluated by cascadia.
package htmldom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/dgallion1/actgen/internal/act"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoParent is returned when an insertion target is detached.
var ErrNoParent = errors.New("node has no parent")

// Document is safe for concurrent use; compiled selectors are shared.
type Document struct {
	selectors sync.Map // string -> cascadia.Selector
}

var _ act.Document[*html.Node] = (*Document)(nil)

// New returns a Document with an empty selector cache.
func New() *Document {
	return &Document{}
}

// ParseDocument parses a complete HTML page.
func ParseDocument(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Compile returns the cached compiled form of sel.
func (d *Document) Compile(sel string) (cascadia.Selector, error) {
	if cached, ok := d.selectors.Load(sel); ok {
		return cached.(cascadia.Selector), nil
	}
	compiled, err := cascadia.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", sel, err)
	}
	d.selectors.Store(sel, compiled)
	return compiled, nil
}

// Find returns the descendants of root matching selector, in document order.
func (d *Document) Find(root *html.Node, selector string) ([]*html.Node, error) {
	sel, err := d.Compile(selector)
	if err != nil {
		return nil, err
	}
	var found []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		found = append(found, sel.MatchAll(c)...)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %q", act.ErrNoMatch, selector)
	}
	return found, nil
}

// Matches reports whether n is an element matching selector. An invalid
// selector never matches.
func (d *Document) Matches(n *html.Node, selector string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	sel, err := d.Compile(selector)
	if err != nil {
		return false
	}
	return sel.Match(n)
}

// Clone deep-copies n. The copy has no parent or siblings.
func (d *Document) Clone(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(d.Clone(child))
	}
	return c
}

// Parse parses markup as the children of a <div>.
func (d *Document) Parse(markup string) ([]*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(markup), d.NewContainer())
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	return nodes, nil
}

// NextSiblingsUntil collects the siblings after n up to boundary.
func (d *Document) NextSiblingsUntil(n, boundary *html.Node, elementsOnly bool) []*html.Node {
	var result []*html.Node
	for s := n.NextSibling; s != nil && s != boundary; s = s.NextSibling {
		if elementsOnly && s.Type != html.ElementNode {
			continue
		}
		result = append(result, s)
	}
	return result
}

// NextMatchingSibling returns the first later sibling of n matching selector.
func (d *Document) NextMatchingSibling(n *html.Node, selector string) (*html.Node, bool) {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if d.Matches(s, selector) {
			return s, true
		}
	}
	return nil, false
}

// Parent returns the element parent of n.
func (d *Document) Parent(n *html.Node) (*html.Node, bool) {
	if n.Parent == nil || n.Parent.Type != html.ElementNode {
		return nil, false
	}
	return n.Parent, true
}

// ElementChildren counts the element children of n.
func (d *Document) ElementChildren(n *html.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			count++
		}
	}
	return count
}

// Attr returns the value of the named attribute, or "" when absent.
func (d *Document) Attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val
		}
	}
	return ""
}

// NewContainer returns a detached <div>.
func (d *Document) NewContainer() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
}

// Detach removes n from its parent, if any.
func (d *Document) Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// InsertBefore moves n in front of target.
func (d *Document) InsertBefore(target, n *html.Node) error {
	if target.Parent == nil {
		return fmt.Errorf("insert before <%s>: %w", target.Data, ErrNoParent)
	}
	d.Detach(n)
	target.Parent.InsertBefore(n, target)
	return nil
}

// AppendChild moves n to the end of parent's children.
func (d *Document) AppendChild(parent, n *html.Node) error {
	if parent == nil {
		return fmt.Errorf("append child: %w", ErrNoParent)
	}
	d.Detach(n)
	parent.AppendChild(n)
	return nil
}

// OuterHTML renders n including its own tag.
func (d *Document) OuterHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("render <%s>: %w", n.Data, err)
	}
	return buf.String(), nil
}

// InnerHTML renders the children of n.
func (d *Document) InnerHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("render <%s> contents: %w", n.Data, err)
		}
	}
	return buf.String(), nil
}
