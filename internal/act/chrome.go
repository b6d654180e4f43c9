package act

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Kind is the chrome type of a marker.
type Kind string

const (
	KindPlaceholder Kind = "placeholder"
	KindRendering   Kind = "rendering"
	KindField       Kind = "field"
)

var (
	// ErrNoMatch is returned by Document.Find when nothing matches.
	ErrNoMatch = errors.New("no matching elements")
	// ErrUnknownMarker means a marker matched none of the chrome grammars.
	ErrUnknownMarker = errors.New("cannot resolve marker kind")
	// ErrUnknownKind means a node of an unhandled kind reached extraction.
	ErrUnknownKind = errors.New("unknown chrome kind")
	// ErrUnbalanced means the marker levels do not describe a tree.
	ErrUnbalanced = errors.New("unbalanced chrome markers")
)

// FlatChrome is one open marker (or simple field tag) in document order.
type FlatChrome[N any] struct {
	ID         string `json:"id"`
	Kind       Kind   `json:"kind"`
	FieldType  string `json:"field_type,omitempty"`
	Level      int    `json:"level"`
	IsFragment bool   `json:"is_fragment"`
	OpenMarker N      `json:"-"`
	Tag        N      `json:"-"`
}

// Node is a single ACT node.
//
// Renderings is set for placeholders only and keeps render order.
// Children is set for renderings and fields and is keyed by chrome id.
type Node[N any] struct {
	ID         string              `json:"id"`
	Kind       Kind                `json:"kind"`
	FieldType  string              `json:"field_type,omitempty"`
	IsFragment bool                `json:"is_fragment"`
	Template   string              `json:"template"`
	Renderings []*Node[N]          `json:"renderings,omitempty"`
	Children   map[string]*Node[N] `json:"children,omitempty"`

	OpenMarker  N    `json:"-"`
	CloseMarker N    `json:"-"`
	Tag         N    `json:"-"`
	HasClose    bool `json:"-"`
}

// Tree is the root of an ACT. It behaves like a rendering scope that also
// keeps top-level renderings in order.
type Tree[N any] struct {
	Template   string              `json:"template"`
	Renderings []*Node[N]          `json:"renderings"`
	Children   map[string]*Node[N] `json:"children,omitempty"`
	Issues     []Issue             `json:"issues,omitempty"`
}

// Walk visits every node depth-first in tree order. Map scopes are visited in
// id order so walks are deterministic.
func (t *Tree[N]) Walk(fn func(path []string, n *Node[N])) {
	walkNodes(nil, t.Renderings, t.Children, fn)
}

// Len returns the number of nodes in the tree.
func (t *Tree[N]) Len() int {
	count := 0
	t.Walk(func([]string, *Node[N]) { count++ })
	return count
}

func walkNodes[N any](path []string, list []*Node[N], set map[string]*Node[N], fn func([]string, *Node[N])) {
	visit := func(n *Node[N]) {
		p := append(append([]string(nil), path...), n.ID)
		fn(p, n)
		walkNodes(p, n.Renderings, n.Children, fn)
	}
	for _, n := range list {
		visit(n)
	}
	for _, id := range slices.Sorted(maps.Keys(set)) {
		visit(set[id])
	}
}

// Severity grades a non-fatal extraction issue.
type Severity string

const (
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// IssueCode identifies the structural anomaly behind a degraded template.
type IssueCode string

const (
	IssueMissingContent     IssueCode = "missing_content"
	IssueAmbiguousContent   IssueCode = "ambiguous_content"
	IssueUnexpectedSiblings IssueCode = "unexpected_siblings"
	IssueMissingClose       IssueCode = "missing_close"
	IssueOrphanMarker       IssueCode = "orphan_marker"
	IssueComponentTemplate  IssueCode = "component_template"
	IssueSerialize          IssueCode = "serialize"
)

// Issue records why a node's template was left empty.
type Issue struct {
	NodeID   string    `json:"node_id"`
	Kind     Kind      `json:"kind"`
	Code     IssueCode `json:"code"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s %q: %s", i.Kind, i.NodeID, i.Message)
}
