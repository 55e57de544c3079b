package dom

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"page_capture/domain/document"
	"page_capture/domain/entities"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/net/html"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestPage(t *testing.T) *Page {
	t.Helper()
	logger, _ := test.NewNullLogger()
	p, err := ParsePage("https://example.test/a", strings.NewReader(`<html><head></head><body><p>x</p></body></html>`), logger)
	require.NoError(t, err)
	return p
}

func TestLoop_RunsInOrder(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	require.NoError(t, l.Do(ctx, func() {}))

	mu.Lock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	mu.Unlock()

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestLoop_DoHonoursContext(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.Do(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoop_DoSkipsAbandonedTask(t *testing.T) {
	l := NewLoop()
	runCtx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)

	release := make(chan struct{})
	l.Post(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	ran := false
	go func() { done <- l.Run(runCtx) }()
	assert.ErrorIs(t, l.Do(ctx, func() { ran = true }), context.DeadlineExceeded)

	close(release)
	require.NoError(t, l.Do(context.Background(), func() {}))
	assert.False(t, ran)

	stop()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestPage_Listeners(t *testing.T) {
	p := newTestPage(t)

	var calls []string
	id1, err := p.AddEventListener(entities.EventClick, func(ev *entities.InputEvent) {
		calls = append(calls, "first")
		ev.PreventDefault()
	})
	require.NoError(t, err)
	_, err = p.AddEventListener(entities.EventClick, func(*entities.InputEvent) { calls = append(calls, "second") })
	require.NoError(t, err)
	_, err = p.AddEventListener(entities.EventKeyPress, func(*entities.InputEvent) { calls = append(calls, "key") })
	require.NoError(t, err)

	assert.True(t, p.Dispatch(&entities.InputEvent{Kind: entities.EventClick}))
	assert.Equal(t, []string{"first", "second"}, calls)

	require.NoError(t, p.RemoveEventListener(id1))
	require.NoError(t, p.RemoveEventListener(id1))
	assert.Equal(t, 1, p.ListenerCount(entities.EventClick))

	calls = nil
	assert.False(t, p.Dispatch(&entities.InputEvent{Kind: entities.EventClick}))
	assert.Equal(t, []string{"second"}, calls)
}

func TestPage_InjectStyleOnce(t *testing.T) {
	p := newTestPage(t)

	require.NoError(t, p.InjectStyle("data-test-style", ".x{}"))
	require.NoError(t, p.InjectStyle("data-test-style", ".y{}"))

	styles := document.FindAll(p.Document(), func(n *html.Node) bool { return document.HasAttr(n, "data-test-style") })
	require.Len(t, styles, 1)
	assert.Equal(t, "head", styles[0].Parent.Data)
	assert.Equal(t, ".x{}", document.TextContent(styles[0], nil))
}

func TestPage_OverlayLifecycle(t *testing.T) {
	p := newTestPage(t)

	h, err := p.CreateOverlay("ov")
	require.NoError(t, err)
	node := p.OverlayNode(h)
	require.NotNil(t, node)
	assert.Equal(t, "body", node.Parent.Data)
	assert.Contains(t, document.Attr(node, "style"), "display:none;")

	require.NoError(t, p.PlaceOverlay(h, entities.Rect{X: 1, Y: 2, Width: 3, Height: 4}))
	require.NoError(t, p.SetOverlayVisible(h, true))
	assert.Equal(t, "top:2px;left:1px;width:3px;height:4px;display:block;", document.Attr(node, "style"))
	require.NoError(t, p.PulseOverlay(h))

	assert.Equal(t, 1, p.OverlayCount("ov"))
	require.NoError(t, p.RemoveOverlay(h))
	assert.Nil(t, node.Parent)
	assert.Equal(t, 0, p.OverlayCount("ov"))
	assert.Error(t, p.PlaceOverlay(h, entities.Rect{}))
	assert.NoError(t, p.RemoveOverlay(h))
}

func TestPage_Geometry(t *testing.T) {
	p := newTestPage(t)
	para := document.Find(p.Document(), document.ByTag("p"))

	box, err := p.BoundingBox(para)
	require.NoError(t, err)
	assert.Equal(t, entities.Rect{}, box)

	p.SetBoundingBox(para, entities.Rect{X: 5, Y: 6, Width: 7, Height: 8})
	p.SetScrollOffset(entities.Point{X: 0, Y: 100})

	box, err = p.BoundingBox(para)
	require.NoError(t, err)
	assert.Equal(t, 6.0, box.Y)
	scroll, err := p.ScrollOffset()
	require.NoError(t, err)
	assert.Equal(t, 100.0, scroll.Y)
}

func TestPage_NoBody(t *testing.T) {
	logger, _ := test.NewNullLogger()
	p := NewPage("about:blank", &html.Node{Type: html.DocumentNode}, logger)

	_, err := p.CreateOverlay("ov")
	assert.Error(t, err)
	assert.Error(t, p.InjectStyle("m", ""))
}
