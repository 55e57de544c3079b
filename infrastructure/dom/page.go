// Package dom implements an inspected page over an in-memory document tree.
// It backs offline inspection of saved HTML and is the reference page used
// by the inspector tests: events are fed in as synthetic InputEvents and the
// overlays are real elements appended to the document body.
package dom

import (
	"fmt"
	"io"
	"sync"

	"page_capture/domain/document"
	"page_capture/domain/entities"
	"page_capture/domain/interfaces"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type listener struct {
	id      entities.ListenerID
	kind    entities.EventKind
	handler entities.EventHandler
}

type overlay struct {
	node    *html.Node
	rect    entities.Rect
	visible bool
	pulses  int
}

// Page is an inspected page whose document lives in memory
type Page struct {
	*Loop

	url    string
	doc    *html.Node
	logger *logrus.Logger

	mu        sync.Mutex
	listeners []listener
	nextID    entities.ListenerID
	cursor    string
	boxes     map[*html.Node]entities.Rect
	scroll    entities.Point
	overlays  map[entities.OverlayHandle]*overlay
}

// NewPage - wraps a parsed document as an inspectable page
func NewPage(url string, doc *html.Node, logger *logrus.Logger) *Page {
	return &Page{
		Loop:     NewLoop(),
		url:      url,
		doc:      doc,
		logger:   logger,
		cursor:   "default",
		boxes:    make(map[*html.Node]entities.Rect),
		overlays: make(map[entities.OverlayHandle]*overlay),
	}
}

// ParsePage - parses markup from r into a page
func ParsePage(url string, r io.Reader, logger *logrus.Logger) (*Page, error) {
	doc, err := document.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %s: %w", url, err)
	}
	return NewPage(url, doc, logger), nil
}

func (p *Page) URL() string {
	return p.url
}

func (p *Page) Document() *html.Node {
	return p.doc
}

// AddEventListener - registers handler for kind
func (p *Page) AddEventListener(kind entities.EventKind, handler entities.EventHandler) (entities.ListenerID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	p.listeners = append(p.listeners, listener{id: p.nextID, kind: kind, handler: handler})
	return p.nextID, nil
}

// RemoveEventListener - detaches a listener by id
func (p *Page) RemoveEventListener(id entities.ListenerID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, l := range p.listeners {
		if l.id == id {
			p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
			return nil
		}
	}
	return nil
}

// ListenerCount - returns how many listeners are registered for kind
func (p *Page) ListenerCount(kind entities.EventKind) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, l := range p.listeners {
		if l.kind == kind {
			n++
		}
	}
	return n
}

// Dispatch - delivers ev to every listener registered for its kind, in
// registration order. It reports whether the default action was prevented.
func (p *Page) Dispatch(ev *entities.InputEvent) bool {
	p.mu.Lock()
	var targets []entities.EventHandler
	for _, l := range p.listeners {
		if l.kind == ev.Kind {
			targets = append(targets, l.handler)
		}
	}
	p.mu.Unlock()

	for _, h := range targets {
		h(ev)
	}
	return ev.DefaultPrevented()
}

func (p *Page) SetCursor(cursor string) error {
	p.mu.Lock()
	p.cursor = cursor
	p.mu.Unlock()
	return nil
}

func (p *Page) Cursor() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// SetBoundingBox - records the layout box reported for n
func (p *Page) SetBoundingBox(n *html.Node, r entities.Rect) {
	p.mu.Lock()
	p.boxes[n] = r
	p.mu.Unlock()
}

// SetScrollOffset - records the page scroll position
func (p *Page) SetScrollOffset(pt entities.Point) {
	p.mu.Lock()
	p.scroll = pt
	p.mu.Unlock()
}

// BoundingBox - returns the recorded box of n; unlaid-out nodes are empty
func (p *Page) BoundingBox(n *html.Node) (entities.Rect, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.boxes[n], nil
}

func (p *Page) ScrollOffset() (entities.Point, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scroll, nil
}

// InjectStyle - appends a style block to head unless one carrying marker exists
func (p *Page) InjectStyle(marker string, css string) error {
	if document.Find(p.doc, func(n *html.Node) bool { return document.HasAttr(n, marker) }) != nil {
		return nil
	}
	head := document.Find(p.doc, document.ByTag("head"))
	if head == nil {
		return fmt.Errorf("page %s has no head element", p.url)
	}
	style := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Style,
		Data:     "style",
		Attr:     []html.Attribute{{Key: marker}},
	}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	head.AppendChild(style)
	return nil
}

// CreateOverlay - appends a hidden overlay div to body
func (p *Page) CreateOverlay(class string) (entities.OverlayHandle, error) {
	body := document.Find(p.doc, document.ByTag("body"))
	if body == nil {
		return "", fmt.Errorf("page %s has no body element", p.url)
	}
	node := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
		Attr:     []html.Attribute{{Key: "class", Val: class}},
	}
	body.AppendChild(node)

	h := entities.OverlayHandle(uuid.NewString())
	ov := &overlay{node: node}
	p.mu.Lock()
	p.overlays[h] = ov
	p.mu.Unlock()
	p.restyle(ov)
	return h, nil
}

func (p *Page) PlaceOverlay(h entities.OverlayHandle, rect entities.Rect) error {
	ov, err := p.overlay(h)
	if err != nil {
		return err
	}
	ov.rect = rect
	p.restyle(ov)
	return nil
}

func (p *Page) SetOverlayVisible(h entities.OverlayHandle, visible bool) error {
	ov, err := p.overlay(h)
	if err != nil {
		return err
	}
	ov.visible = visible
	p.restyle(ov)
	return nil
}

// PulseOverlay - counts the pulse; an in-memory page has nothing to animate
func (p *Page) PulseOverlay(h entities.OverlayHandle) error {
	ov, err := p.overlay(h)
	if err != nil {
		return err
	}
	ov.pulses++
	return nil
}

func (p *Page) RemoveOverlay(h entities.OverlayHandle) error {
	p.mu.Lock()
	ov, ok := p.overlays[h]
	delete(p.overlays, h)
	p.mu.Unlock()
	if !ok {
		return nil
	}
	if ov.node.Parent != nil {
		ov.node.Parent.RemoveChild(ov.node)
	}
	return nil
}

// OverlayNode - returns the element backing an overlay, or nil
func (p *Page) OverlayNode(h entities.OverlayHandle) *html.Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ov, ok := p.overlays[h]; ok {
		return ov.node
	}
	return nil
}

// OverlayCount - returns the number of overlays carrying class
func (p *Page) OverlayCount(class string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ov := range p.overlays {
		if document.Attr(ov.node, "class") == class {
			n++
		}
	}
	return n
}

func (p *Page) overlay(h entities.OverlayHandle) (*overlay, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ov, ok := p.overlays[h]
	if !ok {
		return nil, fmt.Errorf("unknown overlay %s", h)
	}
	return ov, nil
}

func (p *Page) restyle(ov *overlay) {
	display := "display:none;"
	if ov.visible {
		display = "display:block;"
	}
	document.SetAttr(ov.node, "style", ov.rect.Style()+display)
}

var (
	_ interfaces.Page      = (*Page)(nil)
	_ interfaces.Surface   = (*Page)(nil)
	_ interfaces.Geometry  = (*Page)(nil)
	_ interfaces.EventLoop = (*Page)(nil)
)
