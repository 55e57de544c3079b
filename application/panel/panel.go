// Package panel is the controlling side of a capture session: it owns the
// captured page context and the flow order, drives the inspector of the
// foreground page through the relay, and hands the ordered context to the
// code generator.
package panel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"page_capture/application/flow"
	"page_capture/application/pagecontext"
	"page_capture/domain/entities"
	"page_capture/domain/interfaces"

	"github.com/sirupsen/logrus"
)

var (
	// ErrPageUnreachable means the foreground page did not answer; the user
	// should refresh the page and try again.
	ErrPageUnreachable  = errors.New("could not connect to the page, refresh the tab and try again")
	ErrNothingSelected  = errors.New("select at least one element on a page in the flow")
	ErrNothingRequested = errors.New("select at least one artifact to generate")
	ErrMissingAPIKey    = errors.New("enter an API key first")
)

// SettingsStore persists the generation provider and its credential
type SettingsStore interface {
	Load() (entities.Settings, error)
	Save(settings entities.Settings) error
}

// GeneratorFactory builds a generator for the saved settings
type GeneratorFactory func(settings entities.Settings) (interfaces.Generator, error)

// Panel is one capture session, created when the panel opens and torn down
// when it closes
type Panel struct {
	relay        interfaces.Relay
	settings     SettingsStore
	newGenerator GeneratorFactory
	logger       *logrus.Logger

	mu         sync.Mutex
	store      *pagecontext.Store
	order      *flow.Order
	inspecting bool
	visible    bool
	generated  entities.GeneratedCode
	selections chan entities.CapturedElement
}

// NewPanel - creates a panel session over storage
func NewPanel(relay interfaces.Relay, storage interfaces.Storage, settings SettingsStore, newGenerator GeneratorFactory, logger *logrus.Logger) *Panel {
	store := pagecontext.NewStore(storage)
	return &Panel{
		relay:        relay,
		settings:     settings,
		newGenerator: newGenerator,
		logger:       logger,
		store:        store,
		order:        flow.NewOrder(store),
		visible:      true,
		selections:   make(chan entities.CapturedElement, 64),
	}
}

// Open - restores the saved page context
func (p *Panel) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.Load(); err != nil {
		return err
	}
	p.logger.WithField("pages", p.store.Len()).Info("page context restored")
	return nil
}

// Close - saves the page context
func (p *Panel) Close() error {
	return p.Save()
}

// Save - writes the page context to storage
func (p *Panel) Save() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.Save()
}

// Run - consumes relay broadcasts until ctx is done
func (p *Panel) Run(ctx context.Context) error {
	msgs, cancel := p.relay.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			p.handle(msg)
		}
	}
}

// Selections - returns a stream of captured elements as they are recorded.
// Elements are dropped when nobody reads the stream.
func (p *Panel) Selections() <-chan entities.CapturedElement {
	return p.selections
}

func (p *Panel) handle(msg entities.Message) {
	switch msg.Action {
	case entities.ActionElementSelected:
		if msg.Element == nil {
			p.logger.Warn("selection message without element")
			return
		}
		el := *msg.Element
		pageURL := msg.PageURL
		if pageURL == "" {
			pageURL = el.PageURL
		}

		p.mu.Lock()
		p.store.Append(pageURL, el)
		p.mu.Unlock()

		p.logger.WithFields(logrus.Fields{
			"page":  pageURL,
			"tag":   el.Tag,
			"xpath": el.XPath,
		}).Info("element captured")

		select {
		case p.selections <- el:
		default:
		}
	case entities.ActionStopInspector:
		p.mu.Lock()
		p.inspecting = false
		p.mu.Unlock()
	}
}

// Inspecting - reports whether the panel believes the inspector is active
func (p *Panel) Inspecting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inspecting
}

// ToggleInspector - starts the inspector when idle, stops it when active
func (p *Panel) ToggleInspector(ctx context.Context) (bool, error) {
	if p.Inspecting() {
		return p.request(ctx, entities.ActionStopInspector)
	}
	return p.request(ctx, entities.ActionStartInspector)
}

// StartInspector - asks the foreground page to start inspecting
func (p *Panel) StartInspector(ctx context.Context) error {
	_, err := p.request(ctx, entities.ActionStartInspector)
	return err
}

// StopInspector - asks the foreground page to stop inspecting
func (p *Panel) StopInspector(ctx context.Context) error {
	_, err := p.request(ctx, entities.ActionStopInspector)
	return err
}

// SetVisible - records a visibility change of the panel. Becoming visible
// again while inspecting re-issues start to the foreground page.
func (p *Panel) SetVisible(ctx context.Context, visible bool) error {
	p.mu.Lock()
	resume := visible && !p.visible && p.inspecting
	p.visible = visible
	p.mu.Unlock()

	if !resume {
		return nil
	}
	_, err := p.request(ctx, entities.ActionStartInspector)
	return err
}

func (p *Panel) request(ctx context.Context, action entities.MessageAction) (bool, error) {
	resp, err := p.relay.Request(ctx, entities.Message{Action: action})
	if err != nil {
		p.mu.Lock()
		p.inspecting = false
		p.mu.Unlock()
		p.logger.WithError(err).WithField("action", action).Warn("failed to reach page")
		return false, fmt.Errorf("%w: %v", ErrPageUnreachable, err)
	}

	p.mu.Lock()
	p.inspecting = resp.Active
	p.mu.Unlock()

	if resp.Error != "" {
		return resp.Active, fmt.Errorf("%s: %s", action, resp.Error)
	}
	p.logger.WithField("status", resp.Status).Debug("inspector response")
	return resp.Active, nil
}
