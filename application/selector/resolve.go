package selector

import (
	"errors"
	"fmt"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// ErrNotUnique is returned by Verify when a locator does not resolve to
// exactly the expected element.
var ErrNotUnique = errors.New("selector does not resolve to a single element")

// ResolveXPath evaluates an XPath expression against doc.
func ResolveXPath(doc *html.Node, expr string) ([]*html.Node, error) {
	nodes, err := htmlquery.QueryAll(doc, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	return nodes, nil
}

// ResolveCSS evaluates a CSS selector against doc.
func ResolveCSS(doc *html.Node, sel string) ([]*html.Node, error) {
	compiled, err := cascadia.Parse(sel)
	if err != nil {
		return nil, fmt.Errorf("invalid css selector %q: %w", sel, err)
	}
	return cascadia.QueryAll(doc, compiled), nil
}

// Verify checks that both locators resolve to n and nothing else.
func Verify(doc, n *html.Node, xpath, css string) error {
	nodes, err := ResolveXPath(doc, xpath)
	if err != nil {
		return err
	}
	if !only(nodes, n) {
		return fmt.Errorf("xpath %q matched %d elements: %w", xpath, len(nodes), ErrNotUnique)
	}
	nodes, err = ResolveCSS(doc, css)
	if err != nil {
		return err
	}
	if !only(nodes, n) {
		return fmt.Errorf("css %q matched %d elements: %w", css, len(nodes), ErrNotUnique)
	}
	return nil
}

func only(nodes []*html.Node, n *html.Node) bool {
	return len(nodes) == 1 && nodes[0] == n
}
