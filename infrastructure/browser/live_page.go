package browser

import (
	"fmt"
	"strings"
	"sync"

	"page_capture/domain/document"
	"page_capture/domain/entities"
	"page_capture/domain/interfaces"
	"page_capture/infrastructure/dom"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

const dispatchBinding = "__captureDispatch"

type listener struct {
	kind    entities.EventKind
	handler entities.EventHandler
}

// LivePage is an inspected browser tab. Events arrive from the page through
// an exposed binding and are handled on the page's loop against a fresh
// snapshot of the document; overlays and style are drawn by the bridge
// script.
type LivePage struct {
	*dom.Loop

	id     string
	page   playwright.Page
	logger *logrus.Logger

	doc       *html.Node
	marked    map[string]*html.Node
	listeners map[entities.ListenerID]listener
	kinds     map[entities.EventKind]int
	nextID    entities.ListenerID

	mu         sync.Mutex
	onNavigate []func()
}

func newLivePage(page playwright.Page, logger *logrus.Logger) *LivePage {
	return &LivePage{
		Loop:      dom.NewLoop(),
		id:        uuid.NewString(),
		page:      page,
		logger:    logger,
		listeners: make(map[entities.ListenerID]listener),
		kinds:     make(map[entities.EventKind]int),
	}
}

// attach - installs the bridge in the current and every future document
func (p *LivePage) attach() error {
	if err := p.page.ExposeFunction(dispatchBinding, p.receive); err != nil {
		return fmt.Errorf("failed to expose dispatch binding: %w", err)
	}
	script := bridgeScript
	if err := p.page.AddInitScript(playwright.Script{Content: &script}); err != nil {
		return fmt.Errorf("failed to add bridge script: %w", err)
	}
	if _, err := p.page.Evaluate(bridgeScript); err != nil {
		return fmt.Errorf("failed to install bridge: %w", err)
	}

	p.page.OnFrameNavigated(func(frame playwright.Frame) {
		if frame != p.page.MainFrame() {
			return
		}
		p.Post(p.navigated)
	})
	return nil
}

// ID - returns the tab id used by the relay
func (p *LivePage) ID() string {
	return p.id
}

func (p *LivePage) URL() string {
	return p.page.URL()
}

// OnNavigate - registers fn to run on the loop after the main frame navigated
func (p *LivePage) OnNavigate(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onNavigate = append(p.onNavigate, fn)
}

// Document - returns the current snapshot, taking one if none exists
func (p *LivePage) Document() *html.Node {
	if p.doc == nil {
		if _, err := p.snapshot(); err != nil {
			p.logger.WithError(err).Warn("failed to snapshot page")
			doc, _ := document.ParseString("")
			return doc
		}
	}
	return p.doc
}

// Goto - navigates the tab
func (p *LivePage) Goto(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// BringToFront - focuses the tab in the browser window
func (p *LivePage) BringToFront() error {
	return p.page.BringToFront()
}

func (p *LivePage) Close() error {
	return p.page.Close()
}

func (p *LivePage) AddEventListener(kind entities.EventKind, handler entities.EventHandler) (entities.ListenerID, error) {
	if p.kinds[kind] == 0 {
		if _, err := p.page.Evaluate(`(kind) => window.__capture.listen(kind)`, string(kind)); err != nil {
			return 0, fmt.Errorf("failed to listen for %s: %w", kind, err)
		}
	}
	p.kinds[kind]++
	p.nextID++
	p.listeners[p.nextID] = listener{kind: kind, handler: handler}
	return p.nextID, nil
}

func (p *LivePage) RemoveEventListener(id entities.ListenerID) error {
	l, ok := p.listeners[id]
	if !ok {
		return nil
	}
	delete(p.listeners, id)
	p.kinds[l.kind]--
	if p.kinds[l.kind] > 0 {
		return nil
	}
	delete(p.kinds, l.kind)
	if _, err := p.page.Evaluate(`(kind) => window.__capture.unlisten(kind)`, string(l.kind)); err != nil {
		return fmt.Errorf("failed to stop listening for %s: %w", l.kind, err)
	}
	return nil
}

func (p *LivePage) SetCursor(cursor string) error {
	_, err := p.page.Evaluate(`(value) => window.__capture.cursor(value)`, cursor)
	return err
}

func (p *LivePage) BoundingBox(n *html.Node) (entities.Rect, error) {
	result, err := p.page.Evaluate(`([path, token]) => window.__capture.box(path, token)`,
		[]interface{}{toArgs(document.PathOf(n)), p.tokenOf(n)})
	if err != nil {
		return entities.Rect{}, err
	}
	m, ok := result.(map[string]interface{})
	if !ok {
		return entities.Rect{}, fmt.Errorf("element <%s> is no longer in the page", n.Data)
	}
	return entities.Rect{
		X:      getFloat(m, "x"),
		Y:      getFloat(m, "y"),
		Width:  getFloat(m, "width"),
		Height: getFloat(m, "height"),
	}, nil
}

func (p *LivePage) ScrollOffset() (entities.Point, error) {
	result, err := p.page.Evaluate(`() => window.__capture.scroll()`)
	if err != nil {
		return entities.Point{}, err
	}
	m, _ := result.(map[string]interface{})
	return entities.Point{X: getFloat(m, "x"), Y: getFloat(m, "y")}, nil
}

func (p *LivePage) InjectStyle(marker string, css string) error {
	_, err := p.page.Evaluate(`([marker, css]) => window.__capture.style(marker, css)`, []interface{}{marker, css})
	return err
}

func (p *LivePage) CreateOverlay(class string) (entities.OverlayHandle, error) {
	h := entities.OverlayHandle(uuid.NewString())
	if _, err := p.page.Evaluate(`([h, cls]) => window.__capture.create(h, cls)`, []interface{}{string(h), class}); err != nil {
		return "", err
	}
	return h, nil
}

func (p *LivePage) PlaceOverlay(h entities.OverlayHandle, rect entities.Rect) error {
	result, err := p.page.Evaluate(`([h, rect]) => window.__capture.place(h, rect)`, []interface{}{
		string(h),
		map[string]interface{}{"x": rect.X, "y": rect.Y, "width": rect.Width, "height": rect.Height},
	})
	if err != nil {
		return err
	}
	return overlayResult(h, result)
}

func (p *LivePage) SetOverlayVisible(h entities.OverlayHandle, visible bool) error {
	result, err := p.page.Evaluate(`([h, visible]) => window.__capture.show(h, visible)`, []interface{}{string(h), visible})
	if err != nil {
		return err
	}
	return overlayResult(h, result)
}

func (p *LivePage) PulseOverlay(h entities.OverlayHandle) error {
	_, err := p.page.Evaluate(`(h) => window.__capture.pulse(h)`, string(h))
	return err
}

func (p *LivePage) RemoveOverlay(h entities.OverlayHandle) error {
	_, err := p.page.Evaluate(`(h) => window.__capture.remove(h)`, string(h))
	return err
}

// receive is the exposed binding. It runs on the driver's goroutine, so it
// only queues the event.
func (p *LivePage) receive(args ...interface{}) interface{} {
	if len(args) < 3 {
		return nil
	}
	kind, _ := args[0].(string)
	key, _ := args[2].(string)
	path, hasTarget := toPath(args[1])
	var token string
	if len(args) > 3 {
		token, _ = args[3].(string)
	}

	p.Post(func() {
		p.deliver(entities.EventKind(kind), path, hasTarget, key, token)
	})
	return nil
}

func (p *LivePage) deliver(kind entities.EventKind, path []int, hasTarget bool, key, token string) {
	var handlers []entities.EventHandler
	for id := entities.ListenerID(1); id <= p.nextID; id++ {
		if l, ok := p.listeners[id]; ok && l.kind == kind {
			handlers = append(handlers, l.handler)
		}
	}
	if len(handlers) == 0 {
		return
	}

	ev := &entities.InputEvent{Kind: kind, Key: key}
	if hasTarget && kind != entities.EventKeyPress && kind != entities.EventPointerLeave {
		doc, err := p.snapshot()
		if err != nil {
			p.logger.WithError(err).Warn("failed to snapshot page")
			return
		}
		ev.Target = p.target(doc, path, token)
	}
	for _, h := range handlers {
		h(ev)
	}
}

// target - finds the event target in doc by its marker, falling back to the
// element path when the marker did not make it into the snapshot
func (p *LivePage) target(doc *html.Node, path []int, token string) *html.Node {
	if token != "" {
		if _, err := p.page.Evaluate(`(token) => window.__capture.untag(token)`, token); err != nil {
			p.logger.WithError(err).Debug("failed to clear target marker")
		}
		if n, ok := p.marked[token]; ok {
			return n
		}
	}
	return document.NodeAt(doc, path)
}

func (p *LivePage) tokenOf(n *html.Node) string {
	for token, m := range p.marked {
		if m == n {
			return token
		}
	}
	return ""
}

func (p *LivePage) navigated() {
	p.doc = nil
	p.marked = nil
	p.listeners = make(map[entities.ListenerID]listener)
	p.kinds = make(map[entities.EventKind]int)

	p.mu.Lock()
	hooks := append([]func(){}, p.onNavigate...)
	p.mu.Unlock()

	p.logger.WithField("url", p.URL()).Debug("page navigated")
	for _, fn := range hooks {
		fn()
	}
}

func (p *LivePage) snapshot() (*html.Node, error) {
	content, err := p.page.Content()
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, err
	}
	p.marked = document.TakeMarked(doc, targetAttr)
	p.doc = doc
	return doc, nil
}

func overlayResult(h entities.OverlayHandle, result interface{}) error {
	if ok, _ := result.(bool); !ok {
		return fmt.Errorf("unknown overlay %s", h)
	}
	return nil
}

func toArgs(path []int) []interface{} {
	out := make([]interface{}, len(path))
	for i, v := range path {
		out[i] = v
	}
	return out
}

func toPath(v interface{}) ([]int, bool) {
	raw, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	path := make([]int, 0, len(raw))
	for _, r := range raw {
		switch n := r.(type) {
		case int:
			path = append(path, n)
		case float64:
			path = append(path, int(n))
		default:
			return nil, false
		}
	}
	return path, true
}

// getFloat - extracts a numeric value from map
func getFloat(m map[string]interface{}, key string) float64 {
	if v, ok := m[key]; ok {
		switch val := v.(type) {
		case float64:
			return val
		case int:
			return float64(val)
		}
	}
	return 0
}

var (
	_ interfaces.Page      = (*LivePage)(nil)
	_ interfaces.Surface   = (*LivePage)(nil)
	_ interfaces.Geometry  = (*LivePage)(nil)
	_ interfaces.EventLoop = (*LivePage)(nil)
)
