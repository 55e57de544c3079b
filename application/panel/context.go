package panel

import (
	"page_capture/application/flow"
	"page_capture/domain/entities"
)

// Pages - returns the captured page URLs in first-seen order
func (p *Panel) Pages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.Pages()
}

// Elements - returns the captured elements of a page
func (p *Panel) Elements(pageURL string) []entities.CapturedElement {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.ElementsFor(pageURL)
}

// RemovePage - drops a page with its elements and takes it out of the flow
func (p *Panel) RemovePage(pageURL string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.store.Remove(pageURL) {
		return false
	}
	p.order.Remove(pageURL)
	return true
}

// RemoveElement - drops one element; a page left empty also leaves the flow
func (p *Panel) RemoveElement(pageURL string, index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.RemoveElement(pageURL, index); err != nil {
		return err
	}
	p.order.Prune()
	return nil
}

// ToggleFlow - includes or excludes a page from the flow
func (p *Panel) ToggleFlow(pageURL string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.order.Toggle(pageURL)
}

// RemoveFromFlow - takes a page out of the flow; its captured elements stay
func (p *Panel) RemoveFromFlow(pageURL string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.order.Remove(pageURL)
}

func (p *Panel) MoveUp(pageURL string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.order.MoveUp(pageURL)
}

func (p *Panel) MoveDown(pageURL string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.order.MoveDown(pageURL)
}

// FlowStep is one entry of the displayed flow
type FlowStep struct {
	Label string
	URL   string
}

// Flow - returns the flow order with display labels
func (p *Panel) Flow() []FlowStep {
	p.mu.Lock()
	defer p.mu.Unlock()

	urls := p.order.CurrentOrder()
	steps := make([]FlowStep, 0, len(urls))
	for i, u := range urls {
		steps = append(steps, FlowStep{Label: flow.Label(i), URL: u})
	}
	return steps
}

// Payload - returns the flow pages with their elements, in flow order
func (p *Panel) Payload() []entities.PageElements {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payload()
}

func (p *Panel) payload() []entities.PageElements {
	urls := p.order.CurrentOrder()
	out := make([]entities.PageElements, 0, len(urls))
	for _, u := range urls {
		out = append(out, entities.PageElements{URL: u, Elements: p.store.ElementsFor(u)})
	}
	return out
}
