// Package flow keeps the user-defined navigation order across captured pages.
package flow

import (
	"errors"
	"fmt"
)

var ErrUnknownPage = errors.New("page has no captured elements")

// PageSet tells the order which pages currently exist
type PageSet interface {
	Has(pageURL string) bool
}

// Order is an ordered sequence of distinct page URLs, each present in the
// page set. The first entry is the start page.
type Order struct {
	pages PageSet
	urls  []string
}

// NewOrder - creates an empty order over pages
func NewOrder(pages PageSet) *Order {
	return &Order{pages: pages}
}

// Toggle - appends the page if absent, removes it if present. It reports
// whether the page is included afterwards.
func (o *Order) Toggle(pageURL string) (bool, error) {
	if o.Remove(pageURL) {
		return false, nil
	}
	if !o.pages.Has(pageURL) {
		return false, fmt.Errorf("%w: %s", ErrUnknownPage, pageURL)
	}
	o.urls = append(o.urls, pageURL)
	return true, nil
}

// MoveUp - swaps the page with its predecessor; no-op for the first page
func (o *Order) MoveUp(pageURL string) bool {
	i := o.index(pageURL)
	if i <= 0 {
		return false
	}
	o.urls[i-1], o.urls[i] = o.urls[i], o.urls[i-1]
	return true
}

// MoveDown - swaps the page with its successor; no-op for the last page
func (o *Order) MoveDown(pageURL string) bool {
	i := o.index(pageURL)
	if i < 0 || i == len(o.urls)-1 {
		return false
	}
	o.urls[i+1], o.urls[i] = o.urls[i], o.urls[i+1]
	return true
}

// Remove - takes the page out of the order
func (o *Order) Remove(pageURL string) bool {
	i := o.index(pageURL)
	if i < 0 {
		return false
	}
	o.urls = append(o.urls[:i], o.urls[i+1:]...)
	return true
}

// Contains - reports whether the page is part of the order
func (o *Order) Contains(pageURL string) bool {
	return o.index(pageURL) >= 0
}

// Prune - drops pages that left the page set and returns how many went
func (o *Order) Prune() int {
	kept := o.urls[:0]
	for _, u := range o.urls {
		if o.pages.Has(u) {
			kept = append(kept, u)
		}
	}
	dropped := len(o.urls) - len(kept)
	o.urls = kept
	return dropped
}

// CurrentOrder - returns the ordered pages that still exist in the page set
func (o *Order) CurrentOrder() []string {
	out := make([]string, 0, len(o.urls))
	for _, u := range o.urls {
		if o.pages.Has(u) {
			out = append(out, u)
		}
	}
	return out
}

// Label - names a position in the order
func Label(i int) string {
	if i == 0 {
		return "Start Page"
	}
	return fmt.Sprintf("Next Page %d", i)
}

func (o *Order) index(pageURL string) int {
	for i, u := range o.urls {
		if u == pageURL {
			return i
		}
	}
	return -1
}
