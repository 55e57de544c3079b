package entities

// CapturedElement represents an element picked by the user during inspection.
// It is a snapshot: nothing in it refers back to the live document.
type CapturedElement struct {
	Tag         string `json:"tag"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Classes     string `json:"classes"`
	Text        string `json:"text"`
	XPath       string `json:"xpath"`
	CSSSelector string `json:"cssSelector"`
	Markup      string `json:"outerHTML"`
	PageURL     string `json:"pageUrl"`
}

// PageElements represents the captured elements of one page, in capture order
type PageElements struct {
	URL      string            `json:"url"`
	Elements []CapturedElement `json:"elements"`
}
