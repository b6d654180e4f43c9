package templatestore

import (
	"net/url"
	"strings"
)

// PageKey is the prefix every key of a published page lives under.
func PageKey(pageID string) string {
	return "pages/" + url.PathEscape(pageID)
}

// MetaKey holds the page title, source filename and node count.
func MetaKey(pageID string) string {
	return PageKey(pageID) + "/meta"
}

// RootKey holds the root template.
func RootKey(pageID string) string {
	return PageKey(pageID) + "/root"
}

// NodeKey addresses one node by the ids on its path from the root.
func NodeKey(pageID string, path []string) string {
	segs := make([]string, len(path))
	for i, id := range path {
		segs[i] = url.PathEscape(id)
	}
	return PageKey(pageID) + "/nodes/" + strings.Join(segs, "/")
}
