package entities

import "golang.org/x/net/html"

// EventKind represents the kind of input the inspector listens for
type EventKind string

const (
	EventPointerMove  EventKind = "pointermove"
	EventPointerLeave EventKind = "pointerleave"
	EventClick        EventKind = "click"
	EventKeyPress     EventKind = "keydown"
)

// ListenerID identifies one registered event listener on a page
type ListenerID int

// InputEvent represents a pointer or keyboard event delivered to the inspector.
// Target is the node of the page snapshot the event was fired on; it is nil
// for keyboard events.
type InputEvent struct {
	Kind   EventKind
	Target *html.Node
	Key    string

	defaultPrevented   bool
	propagationStopped bool
}

// EventHandler receives events from a page
type EventHandler func(ev *InputEvent)

// PreventDefault - stops the page's own default action for the event
func (e *InputEvent) PreventDefault() {
	e.defaultPrevented = true
}

// StopPropagation - keeps the event from reaching page handlers
func (e *InputEvent) StopPropagation() {
	e.propagationStopped = true
}

func (e *InputEvent) DefaultPrevented() bool {
	return e.defaultPrevented
}

func (e *InputEvent) PropagationStopped() bool {
	return e.propagationStopped
}
