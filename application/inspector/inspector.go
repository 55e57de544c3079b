// Package inspector implements the element picker that runs inside an
// inspected page. It is driven entirely by InputEvents delivered through page
// listeners and by start/stop requests arriving over the relay; all of its
// methods must be called from the page's event loop.
package inspector

import (
	"errors"
	"fmt"

	"page_capture/application/highlight"
	"page_capture/domain/entities"
	"page_capture/domain/interfaces"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// State represents the inspector state
type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	cursorActive = "crosshair"
	cursorIdle   = "default"
)

// Inspector is the Idle/Active state machine of the element picker
type Inspector struct {
	page      interfaces.Page
	highlight *highlight.Controller
	emitter   interfaces.Emitter
	logger    *logrus.Logger

	state     State
	listeners []entities.ListenerID
	hovered   *html.Node
}

// NewInspector - creates an idle inspector for page
func NewInspector(page interfaces.Page, hl *highlight.Controller, emitter interfaces.Emitter, logger *logrus.Logger) *Inspector {
	return &Inspector{
		page:      page,
		highlight: hl,
		emitter:   emitter,
		logger:    logger,
	}
}

func (i *Inspector) State() State {
	return i.state
}

// Hovered - returns the element currently under the pointer, if any
func (i *Inspector) Hovered() *html.Node {
	return i.hovered
}

// Start - attaches the four capture listeners and switches to Active.
// Starting an active inspector does nothing.
func (i *Inspector) Start() error {
	if i.state == Active {
		return nil
	}
	if err := i.detach(); err != nil {
		return fmt.Errorf("stale listeners still attached: %w", err)
	}

	bindings := []struct {
		kind    entities.EventKind
		handler entities.EventHandler
	}{
		{entities.EventPointerMove, i.onPointerMove},
		{entities.EventPointerLeave, i.onPointerLeave},
		{entities.EventClick, i.onClick},
		{entities.EventKeyPress, i.onKeyPress},
	}
	for _, b := range bindings {
		id, err := i.page.AddEventListener(b.kind, b.handler)
		if err != nil {
			i.detach()
			return fmt.Errorf("failed to attach %s listener: %w", b.kind, err)
		}
		i.listeners = append(i.listeners, id)
	}
	if err := i.page.SetCursor(cursorActive); err != nil {
		i.detach()
		return fmt.Errorf("failed to set cursor: %w", err)
	}

	i.state = Active
	i.logger.WithField("page", i.page.URL()).Info("inspector started")
	return nil
}

// Stop - detaches the listeners, restores the cursor and removes the hover
// overlay. Selection overlays stay on the page. The inspector ends up Idle
// even when part of the teardown fails; listeners that could not be detached
// are kept and retried by the next Stop or Start.
func (i *Inspector) Stop() error {
	if i.state == Idle {
		return i.detach()
	}

	errs := []error{i.detach()}
	if err := i.page.SetCursor(cursorIdle); err != nil {
		errs = append(errs, fmt.Errorf("failed to restore cursor: %w", err))
	}
	if err := i.highlight.RemoveHover(); err != nil {
		errs = append(errs, err)
	}
	i.hovered = nil
	i.state = Idle

	i.logger.WithField("page", i.page.URL()).Info("inspector stopped")
	return errors.Join(errs...)
}

// Toggle - stops an active inspector or starts an idle one
func (i *Inspector) Toggle() error {
	if i.state == Active {
		return i.Stop()
	}
	return i.Start()
}

// Reset - returns to Idle after the page was torn down by a navigation. The
// listeners and overlays went away with the old document, so nothing is
// detached.
func (i *Inspector) Reset() {
	i.listeners = nil
	i.hovered = nil
	i.highlight.Forget()
	i.state = Idle
}

// Attached - reports how many listeners the inspector holds on the page
func (i *Inspector) Attached() int {
	return len(i.listeners)
}

func (i *Inspector) detach() error {
	var (
		errs   []error
		failed []entities.ListenerID
	)
	for _, id := range i.listeners {
		if err := i.page.RemoveEventListener(id); err != nil {
			errs = append(errs, fmt.Errorf("failed to detach listener %d: %w", id, err))
			failed = append(failed, id)
		}
	}
	i.listeners = failed
	return errors.Join(errs...)
}

func (i *Inspector) onPointerMove(ev *entities.InputEvent) {
	if i.state != Active || ev.Target == nil || highlight.IsInstrumentation(ev.Target) {
		return
	}
	ev.PreventDefault()
	ev.StopPropagation()

	i.hovered = ev.Target
	if err := i.highlight.ShowHover(ev.Target); err != nil {
		i.logger.WithError(err).Warn("failed to show hover overlay")
	}
}

func (i *Inspector) onPointerLeave(ev *entities.InputEvent) {
	if i.state != Active {
		return
	}
	i.hovered = nil
	if err := i.highlight.HideHover(); err != nil {
		i.logger.WithError(err).Warn("failed to hide hover overlay")
	}
}

func (i *Inspector) onClick(ev *entities.InputEvent) {
	if i.state != Active {
		return
	}
	ev.PreventDefault()
	ev.StopPropagation()

	if ev.Target == nil || highlight.IsInstrumentation(ev.Target) {
		return
	}

	el, err := Capture(ev.Target, i.page.URL())
	if err != nil {
		i.logger.WithError(err).Warn("failed to capture element")
		return
	}
	i.verify(ev.Target, el)

	if _, err := i.highlight.MarkSelected(ev.Target); err != nil {
		i.logger.WithError(err).Warn("failed to mark selected element")
	}

	msg := entities.Message{
		Action:  entities.ActionElementSelected,
		Element: &el,
		PageURL: el.PageURL,
	}
	if err := i.emitter.Send(msg); err != nil {
		i.logger.WithError(err).Warn("failed to emit selected element")
		return
	}
	i.logger.WithFields(logrus.Fields{
		"tag":   el.Tag,
		"xpath": el.XPath,
		"css":   el.CSSSelector,
	}).Debug("element selected")
}

// Escape goes through the relay like any other stop request.
func (i *Inspector) onKeyPress(ev *entities.InputEvent) {
	if i.state != Active || ev.Key != "Escape" {
		return
	}
	if err := i.emitter.Send(entities.Message{Action: entities.ActionStopInspector, PageURL: i.page.URL()}); err != nil {
		i.logger.WithError(err).Warn("failed to request inspector stop")
	}
}
