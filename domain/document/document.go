// Package document holds small helpers over golang.org/x/net/html trees that
// the selector, highlight and inspector packages share.
package document

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Parse - parses an HTML document
func Parse(r io.Reader) (*html.Node, error) {
	return html.Parse(r)
}

// ParseString - parses an HTML document held in a string
func ParseString(s string) (*html.Node, error) {
	return html.Parse(strings.NewReader(s))
}

// IsElement - reports whether n is an element node
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// Attr - returns the value of the named attribute, or "" when absent
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasAttr - reports whether the named attribute is present
func HasAttr(n *html.Node, key string) bool {
	if n == nil {
		return false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}

// SetAttr - sets or replaces an attribute
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr - deletes the named attribute if present
func RemoveAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// TakeMarked - strips the marker attribute key from every element under root
// and returns the marked elements keyed by the marker value
func TakeMarked(root *html.Node, key string) map[string]*html.Node {
	marked := make(map[string]*html.Node)
	for _, n := range FindAll(root, func(n *html.Node) bool { return HasAttr(n, key) }) {
		if val := Attr(n, key); val != "" {
			marked[val] = n
		}
		RemoveAttr(n, key)
	}
	return marked
}

// Classes - returns the class tokens of n
func Classes(n *html.Node) []string {
	return strings.Fields(Attr(n, "class"))
}

// HasClassPrefix - reports whether any class token of n starts with prefix
func HasClassPrefix(n *html.Node, prefix string) bool {
	for _, c := range Classes(n) {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// Root - returns the topmost ancestor of n
func Root(n *html.Node) *html.Node {
	for n != nil && n.Parent != nil {
		n = n.Parent
	}
	return n
}

// DocumentElement - returns the root element of a parsed document
func DocumentElement(doc *html.Node) *html.Node {
	if IsElement(doc) {
		return doc
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if IsElement(c) {
			return c
		}
	}
	return nil
}

// ElementChildren - returns the element children of n in document order
func ElementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsElement(c) {
			out = append(out, c)
		}
	}
	return out
}

// Find - returns the first element under root (root included) matching pred
func Find(root *html.Node, pred func(*html.Node) bool) *html.Node {
	if root == nil {
		return nil
	}
	if IsElement(root) && pred(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := Find(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// FindAll - returns every element under root (root included) matching pred
func FindAll(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if IsElement(n) && pred(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// ByTag - returns a predicate matching elements with the given tag
func ByTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Data == tag }
}

// ByID - returns a predicate matching elements with the given id attribute
func ByID(id string) func(*html.Node) bool {
	return func(n *html.Node) bool { return HasAttr(n, "id") && Attr(n, "id") == id }
}
