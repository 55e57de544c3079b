// Package selector derives locators for elements of a document tree: an
// absolute XPath and a CSS selector, both of which resolve to exactly the
// element they were computed for as long as the document is not modified.
package selector

import (
	"strconv"
	"strings"

	"page_capture/domain/document"

	"golang.org/x/net/html"
)

// XPath returns an absolute XPath for n.
//
// An element whose id is unique in its document is addressed as
// //*[@id="<id>"]. Otherwise the path is built from the root element down,
// each step qualified by the element's 1-based position among same-tag
// siblings. n must be attached to a document.
func XPath(n *html.Node) string {
	if id := document.Attr(n, "id"); xpathIDUsable(n, id) {
		return `//*[@id="` + id + `"]`
	}
	if n.Parent == nil || !document.IsElement(n.Parent) {
		return "/" + n.Data
	}
	return XPath(n.Parent) + "/" + n.Data + "[" + strconv.Itoa(typeIndex(n)) + "]"
}

// A double quote cannot appear inside the "..." literal.
func xpathIDUsable(n *html.Node, id string) bool {
	if id == "" || strings.Contains(id, `"`) {
		return false
	}
	return uniqueID(n, id)
}

// uniqueID reports whether n is the only element of its document carrying id.
func uniqueID(n *html.Node, id string) bool {
	matches := document.FindAll(document.Root(n), document.ByID(id))
	return len(matches) == 1 && matches[0] == n
}

// typeIndex returns the 1-based position of n among its same-tag siblings.
func typeIndex(n *html.Node) int {
	pos := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if sameType(s, n) {
			pos++
		}
	}
	return pos
}

// hasTypeSiblings reports whether any other sibling shares n's tag.
func hasTypeSiblings(n *html.Node) bool {
	if n.Parent == nil {
		return false
	}
	for s := n.Parent.FirstChild; s != nil; s = s.NextSibling {
		if s != n && sameType(s, n) {
			return true
		}
	}
	return false
}

func sameType(a, b *html.Node) bool {
	return document.IsElement(a) && a.Data == b.Data && a.Namespace == b.Namespace
}
