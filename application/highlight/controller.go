// Package highlight draws the hover and selection overlays of the inspector.
package highlight

import (
	"fmt"

	"page_capture/domain/document"
	"page_capture/domain/entities"
	"page_capture/domain/interfaces"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

const (
	// ClassPrefix marks every class the inspector adds to a page.
	ClassPrefix   = "inspector-"
	HoverClass    = "inspector-highlight"
	SelectedClass = "inspector-selected"

	// StyleMarker is the attribute carried by the injected style block.
	StyleMarker = "data-inspector-style"
)

const stylesheet = `
.inspector-highlight {
  position: absolute;
  background: rgba(130, 200, 255, 0.3);
  border: 2px solid #4CAF50;
  pointer-events: none;
  z-index: 10000;
  transition: all 0.2s ease;
}
.inspector-selected {
  position: absolute;
  background: rgba(76, 175, 80, 0.2);
  border: 2px solid #4CAF50;
  pointer-events: none;
  z-index: 9999;
}
`

// IsInstrumentation reports whether n was added to the page by the inspector.
func IsInstrumentation(n *html.Node) bool {
	return document.HasClassPrefix(n, ClassPrefix) || document.HasAttr(n, StyleMarker)
}

// Controller owns at most one hover overlay and any number of selection
// overlays. Overlay positions are snapshots of the target's box plus the page
// scroll at the time they are drawn.
type Controller struct {
	surface  interfaces.Surface
	geometry interfaces.Geometry
	logger   *logrus.Logger

	styled      bool
	hover       entities.OverlayHandle
	hoverTarget *html.Node
	selected    []entities.OverlayHandle
}

// NewController - creates a highlight controller drawing on surface
func NewController(surface interfaces.Surface, geometry interfaces.Geometry, logger *logrus.Logger) *Controller {
	return &Controller{
		surface:  surface,
		geometry: geometry,
		logger:   logger,
	}
}

// ShowHover - moves the hover overlay over n, creating it on first use
func (c *Controller) ShowHover(n *html.Node) error {
	if err := c.ensureStyle(); err != nil {
		return err
	}
	if c.hover == "" {
		h, err := c.surface.CreateOverlay(HoverClass)
		if err != nil {
			return fmt.Errorf("failed to create hover overlay: %w", err)
		}
		c.hover = h
	}

	rect, err := c.measure(n)
	if err != nil {
		return err
	}
	if err := c.surface.PlaceOverlay(c.hover, rect); err != nil {
		return fmt.Errorf("failed to place hover overlay: %w", err)
	}
	if err := c.surface.SetOverlayVisible(c.hover, true); err != nil {
		return fmt.Errorf("failed to show hover overlay: %w", err)
	}
	c.hoverTarget = n
	return nil
}

// HideHover - hides the hover overlay but keeps it for reuse
func (c *Controller) HideHover() error {
	c.hoverTarget = nil
	if c.hover == "" {
		return nil
	}
	return c.surface.SetOverlayVisible(c.hover, false)
}

// RemoveHover - deletes the hover overlay from the page
func (c *Controller) RemoveHover() error {
	c.hoverTarget = nil
	if c.hover == "" {
		return nil
	}
	h := c.hover
	c.hover = ""
	return c.surface.RemoveOverlay(h)
}

// HoverTarget - returns the element under the hover overlay, if any
func (c *Controller) HoverTarget() *html.Node {
	return c.hoverTarget
}

// HasHover - reports whether the hover overlay exists
func (c *Controller) HasHover() bool {
	return c.hover != ""
}

// MarkSelected - draws a new selection overlay over n and pulses it
func (c *Controller) MarkSelected(n *html.Node) (entities.OverlayHandle, error) {
	if err := c.ensureStyle(); err != nil {
		return "", err
	}
	rect, err := c.measure(n)
	if err != nil {
		return "", err
	}
	h, err := c.surface.CreateOverlay(SelectedClass)
	if err != nil {
		return "", fmt.Errorf("failed to create selection overlay: %w", err)
	}
	if err := c.surface.PlaceOverlay(h, rect); err != nil {
		_ = c.surface.RemoveOverlay(h)
		return "", fmt.Errorf("failed to place selection overlay: %w", err)
	}
	if err := c.surface.SetOverlayVisible(h, true); err != nil {
		_ = c.surface.RemoveOverlay(h)
		return "", fmt.Errorf("failed to show selection overlay: %w", err)
	}
	c.selected = append(c.selected, h)

	if err := c.surface.PulseOverlay(h); err != nil {
		c.logger.WithError(err).Debug("selection pulse failed")
	}
	return h, nil
}

// Unmark - removes one selection overlay
func (c *Controller) Unmark(h entities.OverlayHandle) error {
	for i, s := range c.selected {
		if s == h {
			c.selected = append(c.selected[:i], c.selected[i+1:]...)
			return c.surface.RemoveOverlay(h)
		}
	}
	return nil
}

// Selected - returns the handles of the selection overlays in creation order
func (c *Controller) Selected() []entities.OverlayHandle {
	return append([]entities.OverlayHandle(nil), c.selected...)
}

// ClearAll - removes the hover overlay and every selection overlay
func (c *Controller) ClearAll() error {
	var firstErr error
	if err := c.RemoveHover(); err != nil {
		firstErr = err
	}
	for _, h := range c.selected {
		if err := c.surface.RemoveOverlay(h); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.selected = nil
	return firstErr
}

// Forget - drops all overlay state without touching the page. Used when the
// page has been torn down and took the overlays with it.
func (c *Controller) Forget() {
	c.styled = false
	c.hover = ""
	c.hoverTarget = nil
	c.selected = nil
}

func (c *Controller) ensureStyle() error {
	if c.styled {
		return nil
	}
	if err := c.surface.InjectStyle(StyleMarker, stylesheet); err != nil {
		return fmt.Errorf("failed to inject overlay style: %w", err)
	}
	c.styled = true
	return nil
}

func (c *Controller) measure(n *html.Node) (entities.Rect, error) {
	box, err := c.geometry.BoundingBox(n)
	if err != nil {
		return entities.Rect{}, fmt.Errorf("failed to measure element: %w", err)
	}
	scroll, err := c.geometry.ScrollOffset()
	if err != nil {
		return entities.Rect{}, fmt.Errorf("failed to read scroll offset: %w", err)
	}
	return box.Translate(scroll), nil
}
