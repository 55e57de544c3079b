package selector

import (
	"fmt"
	"strconv"
	"strings"

	"page_capture/domain/document"

	"golang.org/x/net/html"
)

// CSSSelector returns a child-combinator selector for n, walking up from n
// until the root element or an ancestor with a document-unique id.
//
// A step gets an :nth-of-type qualifier whenever the element has a sibling
// with the same tag, so every step matches a single child of its parent.
// HTML tags are lower-cased; SVG and MathML names such as clipPath keep
// their case, since type selectors match them case-sensitively.
func CSSSelector(n *html.Node) string {
	var parts []string
	for cur := n; document.IsElement(cur); cur = cur.Parent {
		if id := document.Attr(cur, "id"); id != "" && uniqueID(cur, id) {
			parts = append(parts, "#"+EscapeIdent(id))
			break
		}
		part := cur.Data
		if cur.Namespace == "" {
			part = strings.ToLower(part)
		}
		if hasTypeSiblings(cur) {
			part += ":nth-of-type(" + strconv.Itoa(typeIndex(cur)) + ")"
		}
		parts = append(parts, part)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

// EscapeIdent serializes s as a CSS identifier, following the CSSOM
// escaping rules used by CSS.escape.
func EscapeIdent(s string) string {
	runes := []rune(s)
	var sb strings.Builder
	for i, r := range runes {
		switch {
		case r == 0:
			sb.WriteRune('\uFFFD')
		case (r >= 0x01 && r <= 0x1f) || r == 0x7f:
			fmt.Fprintf(&sb, `\%x `, r)
		case i == 0 && r >= '0' && r <= '9':
			fmt.Fprintf(&sb, `\%x `, r)
		case i == 1 && r >= '0' && r <= '9' && runes[0] == '-':
			fmt.Fprintf(&sb, `\%x `, r)
		case i == 0 && r == '-' && len(runes) == 1:
			sb.WriteString(`\-`)
		case r >= 0x80 || r == '-' || r == '_' ||
			(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			sb.WriteRune(r)
		default:
			sb.WriteByte('\\')
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
