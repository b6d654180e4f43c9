package act

// Document is the tree model the generator works on. N is the adapter's node
// reference. Clone must leave the original untouched; Generate may run
// concurrently only if every method here is safe to call concurrently on
// distinct clones.
type Document[N any] interface {
	// Find returns the descendants of root matching selector, in document
	// order. An empty result is an error wrapping ErrNoMatch.
	Find(root N, selector string) ([]N, error)
	Matches(n N, selector string) bool
	Clone(n N) N
	Parse(markup string) ([]N, error)

	// NextSiblingsUntil collects the siblings after n up to (not including)
	// boundary. Non-element siblings are skipped when elementsOnly is set.
	NextSiblingsUntil(n, boundary N, elementsOnly bool) []N
	NextMatchingSibling(n N, selector string) (N, bool)

	// Parent returns the element parent of n.
	Parent(n N) (N, bool)
	ElementChildren(n N) int
	Attr(n N, name string) string
	NewContainer() N

	Detach(n N)
	InsertBefore(target, n N) error
	AppendChild(parent, n N) error

	OuterHTML(n N) (string, error)
	InnerHTML(n N) (string, error)
}

// TemplateFunc renders the wrapper markup for a node.
type TemplateFunc[N any] func(n *Node[N]) (string, error)

// Templates are the caller-supplied component wrappers.
type Templates[N any] struct {
	Placeholder   TemplateFunc[N]
	RenderingList TemplateFunc[N]
	Field         TemplateFunc[N]
}

// Marker selectors.
const (
	SelectorOpen        = `[kind='open']`
	SelectorClose       = `[kind='close']`
	SelectorPlaceholder = `code[chrometype='placeholder']`
	SelectorRendering   = `code[chrometype='rendering']`
	SelectorField       = `code[chrometype='field']`
	SelectorFieldSimple = `.scWebEditInput`
	SelectorFragment    = `code[kind='open'], code[kind='close']`

	SelectorChrome = SelectorPlaceholder + SelectorOpen + ", " +
		SelectorRendering + SelectorOpen + ", " +
		SelectorField + SelectorOpen + ", " +
		SelectorField + SelectorClose + ", " +
		SelectorFieldSimple + ", " +
		SelectorRendering + SelectorClose + ", " +
		SelectorPlaceholder + SelectorClose

	AttrID        = "id"
	AttrFieldType = "scfieldtype"

	editSuffix = "_edit"
)

func kindSelector(k Kind) string {
	switch k {
	case KindPlaceholder:
		return SelectorPlaceholder
	case KindRendering:
		return SelectorRendering
	case KindField:
		return SelectorField
	}
	return ""
}
