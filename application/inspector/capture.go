package inspector

import (
	"fmt"
	"strings"

	"page_capture/application/highlight"
	"page_capture/application/selector"
	"page_capture/domain/document"
	"page_capture/domain/entities"

	"golang.org/x/net/html"
)

// Capture - builds the record of n as it is right now. Inspector overlays,
// their classes and the injected style block never end up in the record.
func Capture(n *html.Node, pageURL string) (entities.CapturedElement, error) {
	markup, err := document.OuterHTML(n, highlight.IsInstrumentation)
	if err != nil {
		return entities.CapturedElement{}, fmt.Errorf("failed to serialize <%s>: %w", n.Data, err)
	}

	var classes []string
	for _, c := range document.Classes(n) {
		if !strings.HasPrefix(c, highlight.ClassPrefix) {
			classes = append(classes, c)
		}
	}

	return entities.CapturedElement{
		Tag:         strings.ToLower(n.Data),
		ID:          document.Attr(n, "id"),
		Name:        document.Attr(n, "name"),
		Type:        document.Attr(n, "type"),
		Classes:     strings.Join(classes, " "),
		Text:        strings.TrimSpace(document.TextContent(n, highlight.IsInstrumentation)),
		XPath:       selector.XPath(n),
		CSSSelector: selector.CSSSelector(n),
		Markup:      markup,
		PageURL:     pageURL,
	}, nil
}

func (i *Inspector) verify(n *html.Node, el entities.CapturedElement) {
	if err := selector.Verify(i.page.Document(), n, el.XPath, el.CSSSelector); err != nil {
		i.logger.WithError(err).WithField("tag", el.Tag).Warn("captured locator is not unique")
	}
}
