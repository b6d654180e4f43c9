package act

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Generator builds component trees over a Document.
type Generator[N any] struct {
	doc       Document[N]
	templates Templates[N]
	log       *slog.Logger
}

// New creates a Generator. A nil logger discards output.
func New[N any](doc Document[N], templates Templates[N], log *slog.Logger) *Generator[N] {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generator[N]{doc: doc, templates: templates, log: log}
}

// Generate builds the ACT for root. The original tree is cloned first and is
// never modified; every template refers to the clone.
func (g *Generator[N]) Generate(root N) (*Tree[N], error) {
	start := time.Now()
	clone := g.doc.Clone(root)

	flat, err := Flatten(g.doc, clone)
	if err != nil {
		return nil, fmt.Errorf("flatten: %w", err)
	}

	tree := &Tree[N]{Renderings: []*Node[N]{}}
	b := &builder[N]{g: g, items: flat}
	if err := b.build(tree); err != nil {
		return nil, err
	}

	tree.Template, err = g.doc.OuterHTML(clone)
	if err != nil {
		return nil, fmt.Errorf("serialize root: %w", err)
	}
	tree.Issues = b.issues

	g.log.Debug("act generated",
		"chromes", len(flat),
		"issues", len(b.issues),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return tree, nil
}

// scope is where a freshly built node gets attached.
type scope[N any] interface {
	attach(n *Node[N]) (replaced bool)
}

// listScope holds a placeholder's renderings in render order.
type listScope[N any] struct{ owner *Node[N] }

func (s listScope[N]) attach(n *Node[N]) bool {
	s.owner.Renderings = append(s.owner.Renderings, n)
	return false
}

// mapScope holds a rendering's (or field's) nested chromes by id.
type mapScope[N any] struct{ owner *Node[N] }

func (s mapScope[N]) attach(n *Node[N]) bool {
	if s.owner.Children == nil {
		s.owner.Children = make(map[string]*Node[N])
	}
	return putChild(s.owner.Children, n)
}

// rootScope keeps top-level renderings ordered and everything else by id.
type rootScope[N any] struct{ tree *Tree[N] }

func (s rootScope[N]) attach(n *Node[N]) bool {
	if n.Kind == KindRendering {
		s.tree.Renderings = append(s.tree.Renderings, n)
		return false
	}
	if s.tree.Children == nil {
		s.tree.Children = make(map[string]*Node[N])
	}
	return putChild(s.tree.Children, n)
}

func putChild[N any](m map[string]*Node[N], n *Node[N]) bool {
	_, exists := m[n.ID]
	m[n.ID] = n
	return exists
}

func childScope[N any](n *Node[N]) scope[N] {
	if n.Kind == KindPlaceholder {
		return listScope[N]{owner: n}
	}
	return mapScope[N]{owner: n}
}

// builder walks the flat list with a cursor; the list itself is never mutated.
type builder[N any] struct {
	g      *Generator[N]
	items  []FlatChrome[N]
	pos    int
	issues []Issue
}

func (b *builder[N]) build(tree *Tree[N]) error {
	if len(b.items) == 0 {
		return nil
	}
	if err := b.level(rootScope[N]{tree: tree}, 1); err != nil {
		return err
	}
	if b.pos < len(b.items) {
		next := b.items[b.pos]
		return fmt.Errorf("%w: %s %q at level %d left after the top level closed",
			ErrUnbalanced, next.Kind, next.ID, next.Level)
	}
	return nil
}

func (b *builder[N]) peek() (FlatChrome[N], bool) {
	if b.pos >= len(b.items) {
		return FlatChrome[N]{}, false
	}
	return b.items[b.pos], true
}

// level consumes every chrome belonging to s, which sits at depth lvl.
func (b *builder[N]) level(s scope[N], lvl int) error {
	for {
		fc := b.items[b.pos]
		if fc.Level != lvl {
			return fmt.Errorf("%w: %s %q has level %d, expected %d",
				ErrUnbalanced, fc.Kind, fc.ID, fc.Level, lvl)
		}
		b.pos++

		node := &Node[N]{
			ID:         fc.ID,
			Kind:       fc.Kind,
			FieldType:  fc.FieldType,
			IsFragment: fc.IsFragment,
			OpenMarker: fc.OpenMarker,
			Tag:        fc.Tag,
		}
		if node.Kind == KindPlaceholder {
			node.Renderings = []*Node[N]{}
		}
		if s.attach(node) {
			b.g.log.Warn("duplicate chrome id in scope, keeping the later one",
				"node_id", node.ID, "kind", node.Kind)
		}

		if next, ok := b.peek(); ok && next.Level > lvl {
			if err := b.level(childScope(node), lvl+1); err != nil {
				return err
			}
		}

		if node.IsFragment {
			node.CloseMarker, node.HasClose = b.g.findClose(node)
		}

		tmpl, issue, err := b.g.extract(node)
		if err != nil {
			return err
		}
		node.Template = tmpl
		if issue != nil {
			b.report(*issue)
		}

		if next, ok := b.peek(); !ok || next.Level != lvl {
			return nil
		}
	}
}

func (b *builder[N]) report(issue Issue) {
	b.issues = append(b.issues, issue)
	attrs := []any{"node_id", issue.NodeID, "kind", issue.Kind, "code", issue.Code, "reason", issue.Message}
	if issue.Severity == SeverityWarn {
		b.g.log.Warn("template extraction degraded", attrs...)
		return
	}
	b.g.log.Error("template extraction failed", attrs...)
}

// findClose returns the close marker pairing with n's open marker. Open
// markers of the same kind met on the way are counted so a sibling fragment's
// close is never taken.
func (g *Generator[N]) findClose(n *Node[N]) (N, bool) {
	base := kindSelector(n.Kind)
	boundary := base + SelectorOpen + ", " + base + SelectorClose

	depth := 0
	cur := n.OpenMarker
	for {
		next, ok := g.doc.NextMatchingSibling(cur, boundary)
		if !ok {
			var zero N
			return zero, false
		}
		if g.doc.Matches(next, SelectorClose) {
			if depth == 0 {
				return next, true
			}
			depth--
		} else {
			depth++
		}
		cur = next
	}
}
