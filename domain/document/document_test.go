package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const markedTable = `<html><head></head><body>
<table><tr data-target="t7"><td>cell</td></tr></table>
<p data-target="t3">stale</p><span data-target="">empty</span>
</body></html>`

func TestTakeMarked_FindsTargetWherePathsDiverge(t *testing.T) {
	doc, err := ParseString(markedTable)
	require.NoError(t, err)

	// A script-built table has no tbody, so the browser path body>table>tr
	// lands on the tbody the parser inserted.
	byPath := NodeAt(doc, []int{1, 0, 0})
	require.NotNil(t, byPath)
	assert.Equal(t, "tbody", byPath.Data)

	marked := TakeMarked(doc, "data-target")
	require.Len(t, marked, 2)
	assert.Equal(t, "tr", marked["t7"].Data)
	assert.Equal(t, "p", marked["t3"].Data)

	assert.Empty(t, FindAll(doc, func(n *html.Node) bool { return HasAttr(n, "data-target") }))
	markup, err := OuterHTML(marked["t7"], nil)
	require.NoError(t, err)
	assert.Equal(t, "<tr><td>cell</td></tr>", markup)
}

func TestTakeMarked_NothingMarked(t *testing.T) {
	doc, err := ParseString(`<p>x</p>`)
	require.NoError(t, err)

	assert.Empty(t, TakeMarked(doc, "data-target"))
}

func TestRemoveAttr(t *testing.T) {
	n := &html.Node{Type: html.ElementNode, Data: "a", Attr: []html.Attribute{{Key: "href", Val: "/"}, {Key: "id", Val: "x"}}}

	RemoveAttr(n, "href")
	RemoveAttr(n, "missing")

	assert.Equal(t, []html.Attribute{{Key: "id", Val: "x"}}, n.Attr)
}
