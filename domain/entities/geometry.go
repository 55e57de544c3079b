package entities

import "fmt"

// Point represents a 2D offset in CSS pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect represents an element box in CSS pixels
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Translate - returns the rect moved by p
func (r Rect) Translate(p Point) Rect {
	r.X += p.X
	r.Y += p.Y
	return r
}

// Style - renders the rect as absolute positioning declarations
func (r Rect) Style() string {
	return fmt.Sprintf("top:%gpx;left:%gpx;width:%gpx;height:%gpx;", r.Y, r.X, r.Width, r.Height)
}

// OverlayHandle identifies an overlay drawn over the page
type OverlayHandle string
