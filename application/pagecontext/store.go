// Package pagecontext keeps the captured elements of every page, keyed by
// page URL in first-seen order.
package pagecontext

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"page_capture/domain/entities"
	"page_capture/domain/interfaces"
)

// StorageKey is the single durable key the whole store is saved under.
const StorageKey = "domContext.json"

// UnknownPage is used for records that arrive without a page URL.
const UnknownPage = "unknown"

var ErrUnknownPage = errors.New("no elements captured on page")

// Store maps page URL to captured elements. A page is present if and only if
// it holds at least one element. It has a single writer and no locking.
type Store struct {
	storage interfaces.Storage
	order   []string
	pages   map[string][]entities.CapturedElement
}

// NewStore - creates an empty store persisted through storage
func NewStore(storage interfaces.Storage) *Store {
	return &Store{
		storage: storage,
		pages:   make(map[string][]entities.CapturedElement),
	}
}

// Append - adds el to the end of the page's sequence, creating the page on
// first use. Identical elements are recorded again.
func (s *Store) Append(pageURL string, el entities.CapturedElement) {
	if pageURL == "" {
		pageURL = UnknownPage
	}
	if _, ok := s.pages[pageURL]; !ok {
		s.order = append(s.order, pageURL)
	}
	s.pages[pageURL] = append(s.pages[pageURL], el)
}

// Pages - returns the page URLs in first-seen order
func (s *Store) Pages() []string {
	return append([]string(nil), s.order...)
}

// Has - reports whether the page has captured elements
func (s *Store) Has(pageURL string) bool {
	_, ok := s.pages[pageURL]
	return ok
}

// ElementsFor - returns a copy of the page's elements in capture order
func (s *Store) ElementsFor(pageURL string) []entities.CapturedElement {
	return append([]entities.CapturedElement(nil), s.pages[pageURL]...)
}

// Len - returns the number of pages
func (s *Store) Len() int {
	return len(s.order)
}

// Remove - drops a page and all of its elements
func (s *Store) Remove(pageURL string) bool {
	if _, ok := s.pages[pageURL]; !ok {
		return false
	}
	delete(s.pages, pageURL)
	for i, u := range s.order {
		if u == pageURL {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// RemoveElement - drops one element; a page left empty is removed too
func (s *Store) RemoveElement(pageURL string, index int) error {
	els, ok := s.pages[pageURL]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPage, pageURL)
	}
	if index < 0 || index >= len(els) {
		return fmt.Errorf("element index %d out of range for %s (%d elements)", index, pageURL, len(els))
	}
	if len(els) == 1 {
		s.Remove(pageURL)
		return nil
	}
	s.pages[pageURL] = append(els[:index:index], els[index+1:]...)
	return nil
}

// Snapshot - returns every page with its elements, in first-seen order
func (s *Store) Snapshot() []entities.PageElements {
	out := make([]entities.PageElements, 0, len(s.order))
	for _, u := range s.order {
		out = append(out, entities.PageElements{URL: u, Elements: s.ElementsFor(u)})
	}
	return out
}

// Load - replaces the store contents with the saved state, if any
func (s *Store) Load() error {
	data, err := s.storage.Get(StorageKey)
	if err != nil {
		return fmt.Errorf("failed to read page context: %w", err)
	}
	fresh := NewStore(s.storage)
	if len(data) > 0 {
		if err := json.Unmarshal(data, fresh); err != nil {
			return fmt.Errorf("failed to decode page context: %w", err)
		}
	}
	s.order, s.pages = fresh.order, fresh.pages
	return nil
}

// Save - writes the whole store under StorageKey
func (s *Store) Save() error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode page context: %w", err)
	}
	if err := s.storage.Put(StorageKey, data); err != nil {
		return fmt.Errorf("failed to write page context: %w", err)
	}
	return nil
}

// MarshalJSON encodes the store as {"<pageUrl>": [elements...]} with keys in
// first-seen order.
func (s *Store) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, u := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(u)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.pages[u])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the object form and keeps the key order of the
// input. Pages with no elements are skipped.
func (s *Store) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("page context must be a JSON object, got %v", tok)
	}

	if s.pages == nil {
		s.pages = make(map[string][]entities.CapturedElement)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		pageURL, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key %v", tok)
		}
		var els []entities.CapturedElement
		if err := dec.Decode(&els); err != nil {
			return fmt.Errorf("page %s: %w", pageURL, err)
		}
		for _, el := range els {
			s.Append(pageURL, el)
		}
	}
	_, err = dec.Token()
	return err
}
