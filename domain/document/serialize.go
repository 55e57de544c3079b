package document

import (
	"strings"

	"golang.org/x/net/html"
)

// TextContent returns the concatenated text of n and its descendants,
// leaving out subtrees for which skip reports true.
func TextContent(n *html.Node, skip func(*html.Node) bool) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if skip != nil && IsElement(c) && skip(c) {
			return
		}
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	walk(n)
	return sb.String()
}

// OuterHTML renders n as markup, leaving out descendant subtrees for which
// skip reports true. The live tree is not modified.
func OuterHTML(n *html.Node, skip func(*html.Node) bool) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, clone(n, skip)); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func clone(n *html.Node, skip func(*html.Node) bool) *html.Node {
	out := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		out.Attr = append([]html.Attribute(nil), n.Attr...)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if skip != nil && IsElement(c) && skip(c) {
			continue
		}
		out.AppendChild(clone(c, skip))
	}
	return out
}
