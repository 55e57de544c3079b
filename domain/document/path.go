package document

import "golang.org/x/net/html"

// PathOf returns the element-child indices leading from the document element
// down to n. The document element itself has an empty path.
func PathOf(n *html.Node) []int {
	var path []int
	for cur := n; cur != nil && cur.Parent != nil && IsElement(cur.Parent); cur = cur.Parent {
		idx := 0
		for s := cur.Parent.FirstChild; s != nil && s != cur; s = s.NextSibling {
			if IsElement(s) {
				idx++
			}
		}
		path = append(path, idx)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// NodeAt resolves a path produced by PathOf against doc. It returns nil when
// the path no longer exists.
func NodeAt(doc *html.Node, path []int) *html.Node {
	cur := DocumentElement(doc)
	for _, idx := range path {
		if cur == nil || idx < 0 {
			return nil
		}
		children := ElementChildren(cur)
		if idx >= len(children) {
			return nil
		}
		cur = children[idx]
	}
	return cur
}
