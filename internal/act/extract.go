package act

import (
	"fmt"
	"strings"
)

// extract cuts the template for n out of the clone. Structural anomalies come
// back as an Issue with an empty template; only an unhandled kind is an error.
func (g *Generator[N]) extract(n *Node[N]) (string, *Issue, error) {
	switch n.Kind {
	case KindPlaceholder:
		tmpl, issue := g.extractPlaceholder(n)
		return tmpl, issue, nil
	case KindRendering:
		tmpl, issue := g.extractRendering(n)
		return tmpl, issue, nil
	case KindField:
		tmpl, issue := g.extractField(n)
		return tmpl, issue, nil
	}
	return "", nil, fmt.Errorf("%w %q while extracting template for %q", ErrUnknownKind, n.Kind, n.ID)
}

func (g *Generator[N]) extractPlaceholder(n *Node[N]) (string, *Issue) {
	if !n.HasClose {
		return "", missingClose(n)
	}
	parent, ok := g.doc.Parent(n.OpenMarker)
	if !ok {
		return "", newIssue(n, IssueOrphanMarker, SeverityError, "placeholder open marker has no parent element")
	}
	if extra := g.doc.ElementChildren(parent) - 2; extra > 0 {
		return "", newIssue(n, IssueUnexpectedSiblings, SeverityError,
			"placeholder parent element should contain only placeholder chrome tags, found %d unexpected element(s)", extra)
	}

	component, err := g.component(g.templates.Placeholder, n)
	if err != nil {
		return "", newIssue(n, IssueComponentTemplate, SeverityError, "placeholder template: %v", err)
	}
	list, err := g.component(g.templates.RenderingList, n)
	if err != nil {
		return "", newIssue(n, IssueComponentTemplate, SeverityError, "rendering list template: %v", err)
	}

	for _, c := range component {
		if err := g.doc.InsertBefore(parent, c); err != nil {
			return "", newIssue(n, IssueOrphanMarker, SeverityError, "insert placeholder component: %v", err)
		}
	}
	g.doc.Detach(n.OpenMarker)
	g.doc.Detach(n.CloseMarker)
	for _, c := range list {
		if err := g.doc.AppendChild(parent, c); err != nil {
			return "", newIssue(n, IssueOrphanMarker, SeverityError, "append rendering list: %v", err)
		}
	}

	return g.wrap(n, parent)
}

func (g *Generator[N]) extractRendering(n *Node[N]) (string, *Issue) {
	if !n.HasClose {
		return "", missingClose(n)
	}
	content := g.doc.NextSiblingsUntil(n.OpenMarker, n.CloseMarker, true)

	g.doc.Detach(n.OpenMarker)
	g.doc.Detach(n.CloseMarker)

	switch {
	case len(content) == 0:
		return "", newIssue(n, IssueMissingContent, SeverityWarn,
			"no elements found between fragment chrome tags while extracting rendering template")
	case len(content) > 1:
		return "", newIssue(n, IssueAmbiguousContent, SeverityError,
			"unexpected multiple elements (%d) found between fragment chrome tags while extracting rendering template", len(content))
	}
	return g.wrap(n, content[0])
}

func (g *Generator[N]) extractField(n *Node[N]) (string, *Issue) {
	component, err := g.component(g.templates.Field, n)
	if err != nil {
		return "", newIssue(n, IssueComponentTemplate, SeverityError, "field template: %v", err)
	}

	if !n.IsFragment {
		for _, c := range component {
			if err := g.doc.InsertBefore(n.Tag, c); err != nil {
				return "", newIssue(n, IssueOrphanMarker, SeverityError, "insert field component: %v", err)
			}
		}
		g.doc.Detach(n.Tag)
		markup, err := g.doc.OuterHTML(n.Tag)
		if err != nil {
			return "", newIssue(n, IssueSerialize, SeverityError, "serialize field tag: %v", err)
		}
		return markup, nil
	}

	if !n.HasClose {
		return "", missingClose(n)
	}
	content := g.doc.NextSiblingsUntil(n.OpenMarker, n.CloseMarker, true)

	for _, c := range component {
		if err := g.doc.InsertBefore(n.OpenMarker, c); err != nil {
			return "", newIssue(n, IssueOrphanMarker, SeverityError, "insert field component: %v", err)
		}
	}
	g.doc.Detach(n.OpenMarker)
	g.doc.Detach(n.CloseMarker)

	switch {
	case len(content) == 0:
		return "", newIssue(n, IssueMissingContent, SeverityError,
			"element not found between fragment chrome tags while extracting field template")
	case len(content) > 1:
		return "", newIssue(n, IssueAmbiguousContent, SeverityError,
			"unexpected multiple elements (%d) found between fragment chrome tags while extracting field template", len(content))
	}
	return g.wrap(n, content[0])
}

// wrap moves el into a throwaway container and serializes the container's
// contents.
func (g *Generator[N]) wrap(n *Node[N], el N) (string, *Issue) {
	temp := g.doc.NewContainer()
	if err := g.doc.AppendChild(temp, el); err != nil {
		return "", newIssue(n, IssueSerialize, SeverityError, "move content: %v", err)
	}
	markup, err := g.doc.InnerHTML(temp)
	if err != nil {
		return "", newIssue(n, IssueSerialize, SeverityError, "serialize content: %v", err)
	}
	return markup, nil
}

func (g *Generator[N]) component(fn TemplateFunc[N], n *Node[N]) ([]N, error) {
	if fn == nil {
		return nil, nil
	}
	markup, err := fn(n)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(markup) == "" {
		return nil, nil
	}
	return g.doc.Parse(markup)
}

func missingClose[N any](n *Node[N]) *Issue {
	return newIssue(n, IssueMissingClose, SeverityError, "no matching close marker found for %s fragment", n.Kind)
}

func newIssue[N any](n *Node[N], code IssueCode, sev Severity, format string, args ...any) *Issue {
	return &Issue{
		NodeID:   n.ID,
		Kind:     n.Kind,
		Code:     code,
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
	}
}
