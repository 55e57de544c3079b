package interfaces

import (
	"context"

	"page_capture/domain/entities"

	"golang.org/x/net/html"
)

// Page is the inspected page as seen from inside it
type Page interface {
	// URL returns the address of the page
	URL() string

	// Document returns the current snapshot of the page's document tree
	Document() *html.Node

	// AddEventListener registers a capture-phase listener for kind
	AddEventListener(kind entities.EventKind, handler entities.EventHandler) (entities.ListenerID, error)

	// RemoveEventListener detaches a listener; unknown ids are ignored
	RemoveEventListener(id entities.ListenerID) error

	// SetCursor changes the page cursor
	SetCursor(cursor string) error
}

// Surface draws instrumentation over a page
type Surface interface {
	// InjectStyle adds a style block tagged with marker unless one is already present
	InjectStyle(marker string, css string) error

	// CreateOverlay appends a hidden overlay carrying class to the page
	CreateOverlay(class string) (entities.OverlayHandle, error)

	// PlaceOverlay positions an overlay in document coordinates
	PlaceOverlay(handle entities.OverlayHandle, rect entities.Rect) error

	// SetOverlayVisible shows or hides an overlay
	SetOverlayVisible(handle entities.OverlayHandle, visible bool) error

	// PulseOverlay plays the selection animation on an overlay
	PulseOverlay(handle entities.OverlayHandle) error

	// RemoveOverlay deletes an overlay from the page
	RemoveOverlay(handle entities.OverlayHandle) error
}

// Geometry measures rendered elements
type Geometry interface {
	// BoundingBox returns the viewport-relative box of n
	BoundingBox(n *html.Node) (entities.Rect, error)

	// ScrollOffset returns the current page scroll
	ScrollOffset() (entities.Point, error)
}

// EventLoop runs work on the page's single UI loop
type EventLoop interface {
	// Do runs fn on the loop and waits for it to finish
	Do(ctx context.Context, fn func()) error

	// Post queues fn on the loop without waiting
	Post(fn func())
}
