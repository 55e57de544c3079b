// Package relay forwards messages between the controlling panel and the
// inspected pages. It is an in-process stand-in for the extension broker:
// requests go to whichever page is in the foreground when they are sent,
// and page broadcasts are rebroadcast to every panel subscriber.
package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"page_capture/domain/entities"
	"page_capture/domain/interfaces"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoReceiver means no page is attached to the foreground tab.
	ErrNoReceiver = errors.New("receiving end does not exist")
	ErrClosed     = errors.New("relay closed")
)

// routeTimeout bounds a stop request routed back to the page.
const routeTimeout = 5 * time.Second

// RequestHandler answers a request on behalf of one page
type RequestHandler func(ctx context.Context, msg entities.Message) (entities.Response, error)

// Broker routes panel requests to pages and page broadcasts to the panel
type Broker struct {
	logger *logrus.Logger

	mu          sync.Mutex
	pages       map[string]RequestHandler
	active      string
	subscribers map[int]*mailbox
	nextSub     int
	closed      bool

	wg sync.WaitGroup
}

// NewBroker - creates a broker with no pages and no subscribers
func NewBroker(logger *logrus.Logger) *Broker {
	return &Broker{
		logger:      logger,
		pages:       make(map[string]RequestHandler),
		subscribers: make(map[int]*mailbox),
	}
}

// RegisterPage - attaches a page's request handler under its tab id
func (b *Broker) RegisterPage(tabID string, h RequestHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pages[tabID] = h
}

// UnregisterPage - detaches a tab; it stops being the foreground tab
func (b *Broker) UnregisterPage(tabID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pages, tabID)
	if b.active == tabID {
		b.active = ""
	}
}

// Activate - marks tabID as the foreground tab
func (b *Broker) Activate(tabID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = tabID
}

// ActiveTab - returns the foreground tab id, if one is set
func (b *Broker) ActiveTab() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active, b.active != ""
}

// Request - delivers msg to the foreground page and returns its response.
// The foreground page is resolved at call time.
func (b *Broker) Request(ctx context.Context, msg entities.Message) (entities.Response, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return entities.Response{}, ErrClosed
	}
	h, ok := b.pages[b.active]
	tab := b.active
	b.mu.Unlock()

	if !ok {
		return entities.Response{}, fmt.Errorf("%s: %w", msg.Action, ErrNoReceiver)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	b.logger.WithFields(logrus.Fields{
		"action": msg.Action,
		"tab":    tab,
		"id":     msg.ID,
	}).Debug("relay request")

	resp, err := h(ctx, msg)
	if err != nil {
		return entities.Response{}, fmt.Errorf("tab %s: %w", tab, err)
	}
	return resp, nil
}

// Send - accepts a fire-and-forget message from a page. elementSelected is
// rebroadcast to subscribers; stopInspector is rebroadcast and also routed
// back to the foreground page as a stop request.
func (b *Broker) Send(msg entities.Message) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	for _, mb := range b.subscribers {
		mb.push(msg)
	}
	route := msg.Action == entities.ActionStopInspector
	if route {
		b.wg.Add(1)
	}
	b.mu.Unlock()

	if route {
		// The sender is usually the page loop itself, so the request must
		// not be answered synchronously.
		go func() {
			defer b.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), routeTimeout)
			defer cancel()
			if _, err := b.Request(ctx, msg); err != nil {
				b.logger.WithError(err).Warn("failed to route stop request")
			}
		}()
	}
	return nil
}

// Subscribe - returns the panel-side message stream and its cancel func
func (b *Broker) Subscribe() (<-chan entities.Message, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	mb := newMailbox()
	if b.closed {
		mb.close()
		return mb.out, func() {}
	}
	id := b.nextSub
	b.nextSub++
	b.subscribers[id] = mb

	var once sync.Once
	return mb.out, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
			mb.close()
		})
	}
}

// Close - stops delivery, closes every subscription and waits for routed
// requests to finish
func (b *Broker) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subscribers
	b.subscribers = make(map[int]*mailbox)
	b.mu.Unlock()

	for _, mb := range subs {
		mb.close()
	}
	b.wg.Wait()
}

var (
	_ interfaces.Relay   = (*Broker)(nil)
	_ interfaces.Emitter = (*Broker)(nil)
)
