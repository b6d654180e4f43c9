package act

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Flatten lists the chrome markers under root in document order. Close
// markers only move the level counter and are not returned.
func Flatten[N any](doc Document[N], root N) ([]FlatChrome[N], error) {
	markers, err := doc.Find(root, SelectorChrome)
	if errors.Is(err, ErrNoMatch) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find markers: %w", err)
	}

	var result []FlatChrome[N]
	level := 0
	for _, el := range markers {
		if doc.Matches(el, SelectorClose) {
			level--
			continue
		}

		kind, err := classify(doc, el)
		if err != nil {
			return nil, err
		}

		var fc FlatChrome[N]
		if doc.Matches(el, SelectorFragment) {
			level++
			fc = FlatChrome[N]{
				ID:         strings.TrimSuffix(doc.Attr(el, AttrID), editSuffix),
				Kind:       kind,
				Level:      level,
				IsFragment: true,
				OpenMarker: el,
			}
		} else {
			fc = FlatChrome[N]{
				ID:    doc.Attr(el, AttrID),
				Kind:  kind,
				Level: level + 1,
				Tag:   el,
			}
		}
		if kind == KindField {
			fc.FieldType = doc.Attr(el, AttrFieldType)
		}
		result = append(result, fc)
	}
	return result, nil
}

func classify[N any](doc Document[N], el N) (Kind, error) {
	switch {
	case doc.Matches(el, SelectorPlaceholder):
		return KindPlaceholder, nil
	case doc.Matches(el, SelectorRendering):
		return KindRendering, nil
	case doc.Matches(el, SelectorField), doc.Matches(el, SelectorFieldSimple):
		return KindField, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownMarker, describe(doc, el))
}

func describe[N any](doc Document[N], el N) string {
	if id := doc.Attr(el, AttrID); id != "" {
		return "id=" + id
	}
	markup, err := doc.OuterHTML(el)
	if err != nil {
		return "<unserializable>"
	}
	return truncate(markup, 80)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
