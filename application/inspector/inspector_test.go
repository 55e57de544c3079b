package inspector

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"page_capture/application/highlight"
	"page_capture/domain/document"
	"page_capture/domain/entities"
	"page_capture/infrastructure/dom"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const shopPage = `<html><head></head><body>
<nav class="top"><a href="/cart">Cart</a></nav>
<form id="search"><input name="q" type="search" class="field wide"><button>Go</button></form>
<ul><li>one</li><li>two</li></ul>
</body></html>`

type recordingEmitter struct {
	mu   sync.Mutex
	msgs []entities.Message
	err  error
}

func (r *recordingEmitter) Send(msg entities.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recordingEmitter) sent() []entities.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entities.Message(nil), r.msgs...)
}

func newTestLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

type fixture struct {
	page      *dom.Page
	hl        *highlight.Controller
	emitter   *recordingEmitter
	inspector *Inspector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	p, err := dom.ParsePage("https://shop.test/", strings.NewReader(shopPage), newTestLogger())
	require.NoError(t, err)
	hl := highlight.NewController(p, p, newTestLogger())
	em := &recordingEmitter{}
	return &fixture{
		page:      p,
		hl:        hl,
		emitter:   em,
		inspector: NewInspector(p, hl, em, newTestLogger()),
	}
}

func (f *fixture) find(t *testing.T, pred func(*html.Node) bool) *html.Node {
	t.Helper()
	n := document.Find(f.page.Document(), pred)
	require.NotNil(t, n)
	return n
}

func (f *fixture) listenerTotal() int {
	total := 0
	for _, k := range []entities.EventKind{entities.EventPointerMove, entities.EventPointerLeave, entities.EventClick, entities.EventKeyPress} {
		total += f.page.ListenerCount(k)
	}
	return total
}

func TestStart_AttachesListeners(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.inspector.Start())

	assert.Equal(t, Active, f.inspector.State())
	assert.Equal(t, "crosshair", f.page.Cursor())
	assert.Equal(t, 4, f.listenerTotal())
	for _, k := range []entities.EventKind{entities.EventPointerMove, entities.EventPointerLeave, entities.EventClick, entities.EventKeyPress} {
		assert.Equal(t, 1, f.page.ListenerCount(k), k)
	}
}

func TestStart_Idempotent(t *testing.T) {
	f := newFixture(t)

	li := f.find(t, document.ByTag("li"))

	require.NoError(t, f.inspector.Start())
	require.NoError(t, f.inspector.Start())

	assert.Equal(t, 4, f.listenerTotal())

	f.page.Dispatch(&entities.InputEvent{Kind: entities.EventClick, Target: li})
	assert.Len(t, f.emitter.sent(), 1)
	assert.Equal(t, 1, f.page.OverlayCount(highlight.SelectedClass))
}

// stickyPage fails to remove listeners while failures is positive
type stickyPage struct {
	*dom.Page
	failures int
}

func (p *stickyPage) RemoveEventListener(id entities.ListenerID) error {
	if p.failures > 0 {
		p.failures--
		return errors.New("bridge unavailable")
	}
	return p.Page.RemoveEventListener(id)
}

func TestStop_KeepsListenersThatFailedToDetach(t *testing.T) {
	f := newFixture(t)
	page := &stickyPage{Page: f.page, failures: 1}
	insp := NewInspector(page, f.hl, f.emitter, newTestLogger())

	require.NoError(t, insp.Start())
	err := insp.Stop()
	require.Error(t, err)

	assert.Equal(t, Idle, insp.State())
	assert.Equal(t, 1, insp.Attached())
	assert.Equal(t, 1, f.listenerTotal())

	require.NoError(t, insp.Stop())
	assert.Equal(t, 0, insp.Attached())
	assert.Equal(t, 0, f.listenerTotal())
}

func TestStart_RetriesStaleListenersFirst(t *testing.T) {
	f := newFixture(t)
	page := &stickyPage{Page: f.page, failures: 1}
	insp := NewInspector(page, f.hl, f.emitter, newTestLogger())

	require.NoError(t, insp.Start())
	require.Error(t, insp.Stop())

	require.NoError(t, insp.Start())
	assert.Equal(t, Active, insp.State())
	assert.Equal(t, 4, insp.Attached())
	assert.Equal(t, 4, f.listenerTotal())
}

func TestStart_FailsWhileStaleListenersStick(t *testing.T) {
	f := newFixture(t)
	page := &stickyPage{Page: f.page, failures: 2}
	insp := NewInspector(page, f.hl, f.emitter, newTestLogger())

	require.NoError(t, insp.Start())
	require.Error(t, insp.Stop())

	require.Error(t, insp.Start())
	assert.Equal(t, Idle, insp.State())
	assert.Equal(t, 1, f.listenerTotal())
}

func TestStop_RestoresPage(t *testing.T) {
	f := newFixture(t)
	input := f.find(t, document.ByTag("input"))

	require.NoError(t, f.inspector.Start())
	f.page.Dispatch(&entities.InputEvent{Kind: entities.EventPointerMove, Target: input})
	f.page.Dispatch(&entities.InputEvent{Kind: entities.EventClick, Target: input})
	require.Equal(t, 1, f.page.OverlayCount(highlight.HoverClass))

	require.NoError(t, f.inspector.Stop())

	assert.Equal(t, Idle, f.inspector.State())
	assert.Equal(t, "default", f.page.Cursor())
	assert.Equal(t, 0, f.listenerTotal())
	assert.Equal(t, 0, f.page.OverlayCount(highlight.HoverClass))
	assert.Equal(t, 1, f.page.OverlayCount(highlight.SelectedClass))
	assert.Nil(t, f.inspector.Hovered())
}

func TestStop_WhenIdle(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.inspector.Stop())
	assert.Equal(t, Idle, f.inspector.State())
	assert.Equal(t, "default", f.page.Cursor())
}

func TestToggle(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.inspector.Toggle())
	assert.Equal(t, Active, f.inspector.State())
	require.NoError(t, f.inspector.Toggle())
	assert.Equal(t, Idle, f.inspector.State())
	assert.Equal(t, 0, f.listenerTotal())
}

func TestPointerMove_HighlightsTarget(t *testing.T) {
	f := newFixture(t)
	link := f.find(t, document.ByTag("a"))
	button := f.find(t, document.ByTag("button"))
	require.NoError(t, f.inspector.Start())

	ev := &entities.InputEvent{Kind: entities.EventPointerMove, Target: link}
	f.page.Dispatch(ev)
	assert.True(t, ev.DefaultPrevented())
	assert.True(t, ev.PropagationStopped())
	assert.Same(t, link, f.inspector.Hovered())
	assert.Same(t, link, f.hl.HoverTarget())

	f.page.Dispatch(&entities.InputEvent{Kind: entities.EventPointerMove, Target: button})
	assert.Same(t, button, f.hl.HoverTarget())
	assert.Equal(t, 1, f.page.OverlayCount(highlight.HoverClass))
}

func TestPointerMove_IgnoresOverlays(t *testing.T) {
	f := newFixture(t)
	link := f.find(t, document.ByTag("a"))
	require.NoError(t, f.inspector.Start())
	f.page.Dispatch(&entities.InputEvent{Kind: entities.EventPointerMove, Target: link})

	ov := f.find(t, func(n *html.Node) bool { return document.Attr(n, "class") == highlight.HoverClass })
	ev := &entities.InputEvent{Kind: entities.EventPointerMove, Target: ov}
	f.page.Dispatch(ev)

	assert.False(t, ev.DefaultPrevented())
	assert.Same(t, link, f.hl.HoverTarget())
}

func TestPointerLeave_HidesHover(t *testing.T) {
	f := newFixture(t)
	link := f.find(t, document.ByTag("a"))
	require.NoError(t, f.inspector.Start())

	f.page.Dispatch(&entities.InputEvent{Kind: entities.EventPointerMove, Target: link})
	f.page.Dispatch(&entities.InputEvent{Kind: entities.EventPointerLeave, Target: link})

	assert.Nil(t, f.inspector.Hovered())
	assert.True(t, f.hl.HasHover())
	assert.Nil(t, f.hl.HoverTarget())
}

func TestClick_CapturesAndEmits(t *testing.T) {
	f := newFixture(t)
	input := f.find(t, document.ByTag("input"))
	require.NoError(t, f.inspector.Start())
	f.page.Dispatch(&entities.InputEvent{Kind: entities.EventPointerMove, Target: input})

	ev := &entities.InputEvent{Kind: entities.EventClick, Target: input}
	prevented := f.page.Dispatch(ev)

	assert.True(t, prevented)
	assert.True(t, ev.PropagationStopped())

	sent := f.emitter.sent()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, entities.ActionElementSelected, msg.Action)
	assert.Equal(t, "https://shop.test/", msg.PageURL)
	require.NotNil(t, msg.Element)

	el := msg.Element
	assert.Equal(t, "input", el.Tag)
	assert.Equal(t, "", el.ID)
	assert.Equal(t, "q", el.Name)
	assert.Equal(t, "search", el.Type)
	assert.Equal(t, "field wide", el.Classes)
	assert.Equal(t, `//*[@id="search"]/input[1]`, el.XPath)
	assert.Equal(t, "#search > input", el.CSSSelector)
	assert.Equal(t, `<input name="q" type="search" class="field wide"/>`, el.Markup)
	assert.Equal(t, "https://shop.test/", el.PageURL)

	assert.Equal(t, 1, f.page.OverlayCount(highlight.SelectedClass))
	assert.Equal(t, Active, f.inspector.State())
}

func TestClick_RepeatedSelectionsAccumulate(t *testing.T) {
	f := newFixture(t)
	li := document.FindAll(f.page.Document(), document.ByTag("li"))
	require.Len(t, li, 2)
	require.NoError(t, f.inspector.Start())

	f.page.Dispatch(&entities.InputEvent{Kind: entities.EventClick, Target: li[0]})
	f.page.Dispatch(&entities.InputEvent{Kind: entities.EventClick, Target: li[1]})
	f.page.Dispatch(&entities.InputEvent{Kind: entities.EventClick, Target: li[0]})

	sent := f.emitter.sent()
	require.Len(t, sent, 3)
	assert.Equal(t, "one", sent[0].Element.Text)
	assert.Equal(t, "two", sent[1].Element.Text)
	assert.Equal(t, sent[0].Element.XPath, sent[2].Element.XPath)
	assert.Equal(t, 3, f.page.OverlayCount(highlight.SelectedClass))
}

func TestClick_OnOverlayIsSwallowed(t *testing.T) {
	f := newFixture(t)
	li := f.find(t, document.ByTag("li"))
	require.NoError(t, f.inspector.Start())
	f.page.Dispatch(&entities.InputEvent{Kind: entities.EventClick, Target: li})

	ov := f.find(t, func(n *html.Node) bool { return document.Attr(n, "class") == highlight.SelectedClass })
	ev := &entities.InputEvent{Kind: entities.EventClick, Target: ov}
	f.page.Dispatch(ev)

	assert.True(t, ev.DefaultPrevented())
	assert.Len(t, f.emitter.sent(), 1)
}

func TestClick_OnHoverOverlayCapturesNothing(t *testing.T) {
	f := newFixture(t)
	input := f.find(t, document.ByTag("input"))
	require.NoError(t, f.inspector.Start())
	f.page.Dispatch(&entities.InputEvent{Kind: entities.EventPointerMove, Target: input})

	hover := f.find(t, func(n *html.Node) bool { return document.Attr(n, "class") == highlight.HoverClass })
	ev := &entities.InputEvent{Kind: entities.EventClick, Target: hover}
	f.page.Dispatch(ev)

	assert.True(t, ev.DefaultPrevented())
	assert.Empty(t, f.emitter.sent())
	assert.Equal(t, 0, f.page.OverlayCount(highlight.SelectedClass))
}

func TestClick_ExcludesInstrumentationFromRecord(t *testing.T) {
	f := newFixture(t)
	body := f.find(t, document.ByTag("body"))
	nav := f.find(t, document.ByTag("nav"))
	require.NoError(t, f.inspector.Start())

	f.page.Dispatch(&entities.InputEvent{Kind: entities.EventPointerMove, Target: nav})
	f.page.Dispatch(&entities.InputEvent{Kind: entities.EventClick, Target: body})

	sent := f.emitter.sent()
	require.Len(t, sent, 1)
	assert.NotContains(t, sent[0].Element.Markup, highlight.ClassPrefix)
	assert.Equal(t, "/html/body[1]", sent[0].Element.XPath)
}

func TestClick_IgnoresInspectorClassedElements(t *testing.T) {
	f := newFixture(t)
	nav := f.find(t, document.ByTag("nav"))
	document.SetAttr(nav, "class", "top inspector-marked")
	require.NoError(t, f.inspector.Start())

	f.page.Dispatch(&entities.InputEvent{Kind: entities.EventClick, Target: nav})

	assert.Empty(t, f.emitter.sent())
}

func TestClick_SendFailureKeepsInspecting(t *testing.T) {
	f := newFixture(t)
	f.emitter.err = errors.New("relay down")
	li := f.find(t, document.ByTag("li"))
	require.NoError(t, f.inspector.Start())

	f.page.Dispatch(&entities.InputEvent{Kind: entities.EventClick, Target: li})

	assert.Equal(t, Active, f.inspector.State())
}

func TestEscape_RequestsStop(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.inspector.Start())

	f.page.Dispatch(&entities.InputEvent{Kind: entities.EventKeyPress, Key: "Enter"})
	assert.Empty(t, f.emitter.sent())

	f.page.Dispatch(&entities.InputEvent{Kind: entities.EventKeyPress, Key: "Escape"})
	sent := f.emitter.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, entities.ActionStopInspector, sent[0].Action)
	assert.Equal(t, "https://shop.test/", sent[0].PageURL)
}

func TestIdle_IgnoresEvents(t *testing.T) {
	f := newFixture(t)
	li := f.find(t, document.ByTag("li"))
	require.NoError(t, f.inspector.Start())
	require.NoError(t, f.inspector.Stop())

	ev := &entities.InputEvent{Kind: entities.EventClick, Target: li}
	assert.False(t, f.page.Dispatch(ev))
	assert.Empty(t, f.emitter.sent())
}

func TestReset_ForgetsOverlays(t *testing.T) {
	f := newFixture(t)
	li := f.find(t, document.ByTag("li"))
	require.NoError(t, f.inspector.Start())
	f.page.Dispatch(&entities.InputEvent{Kind: entities.EventPointerMove, Target: li})

	f.inspector.Reset()

	assert.Equal(t, Idle, f.inspector.State())
	assert.False(t, f.hl.HasHover())
	assert.Empty(t, f.hl.Selected())
}
