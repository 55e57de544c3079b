package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageSet map[string]bool

func (p pageSet) Has(u string) bool { return p[u] }

func TestToggle_TwiceReturnsToEmpty(t *testing.T) {
	o := NewOrder(pageSet{"/start": true})

	included, err := o.Toggle("/start")
	require.NoError(t, err)
	assert.True(t, included)
	assert.Equal(t, []string{"/start"}, o.CurrentOrder())

	included, err = o.Toggle("/start")
	require.NoError(t, err)
	assert.False(t, included)
	assert.Empty(t, o.CurrentOrder())
}

func TestToggle_UnknownPageRejected(t *testing.T) {
	o := NewOrder(pageSet{"/start": true})

	_, err := o.Toggle("/nowhere")
	assert.ErrorIs(t, err, ErrUnknownPage)
	assert.Empty(t, o.CurrentOrder())
}

func TestMoveUp_StartNextScenario(t *testing.T) {
	o := NewOrder(pageSet{"/start": true, "/next": true})

	_, err := o.Toggle("/next")
	require.NoError(t, err)
	_, err = o.Toggle("/start")
	require.NoError(t, err)
	assert.Equal(t, []string{"/next", "/start"}, o.CurrentOrder())

	assert.True(t, o.MoveUp("/start"))
	assert.Equal(t, []string{"/start", "/next"}, o.CurrentOrder())
}

func TestMove_BoundariesAreNoOps(t *testing.T) {
	o := NewOrder(pageSet{"/a": true, "/b": true, "/c": true})
	for _, u := range []string{"/a", "/b", "/c"} {
		_, err := o.Toggle(u)
		require.NoError(t, err)
	}

	assert.False(t, o.MoveUp("/a"))
	assert.False(t, o.MoveDown("/c"))
	assert.False(t, o.MoveUp("/missing"))
	assert.False(t, o.MoveDown("/missing"))
	assert.Equal(t, []string{"/a", "/b", "/c"}, o.CurrentOrder())

	assert.True(t, o.MoveDown("/a"))
	assert.Equal(t, []string{"/b", "/a", "/c"}, o.CurrentOrder())
}

func TestRemove_AndPruneFollowPageSet(t *testing.T) {
	pages := pageSet{"/a": true, "/b": true}
	o := NewOrder(pages)
	_, _ = o.Toggle("/a")
	_, _ = o.Toggle("/b")

	assert.True(t, o.Remove("/a"))
	assert.False(t, o.Remove("/a"))
	assert.Equal(t, []string{"/b"}, o.CurrentOrder())

	delete(pages, "/b")
	assert.Empty(t, o.CurrentOrder())
	assert.True(t, o.Contains("/b"))
	assert.Equal(t, 1, o.Prune())
	assert.False(t, o.Contains("/b"))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Start Page", Label(0))
	assert.Equal(t, "Next Page 1", Label(1))
	assert.Equal(t, "Next Page 3", Label(3))
}
