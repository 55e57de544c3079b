package entities

// GenerationOptions selects which artifacts the generator produces
type GenerationOptions struct {
	Feature         bool `json:"feature"`
	StepDefinitions bool `json:"stepDefinitions"`
	PageObjects     bool `json:"pageObjects"`
}

// Any - reports whether at least one artifact is requested
func (o GenerationOptions) Any() bool {
	return o.Feature || o.StepDefinitions || o.PageObjects
}

// GenerationRequest is the payload handed to the code generator:
// pages in flow order, each with its captured elements.
type GenerationRequest struct {
	Pages   []PageElements    `json:"multiPageContext"`
	Options GenerationOptions `json:"options"`
}

// GeneratedCode holds the generator output as plain text
type GeneratedCode struct {
	Gherkin         string `json:"gherkin"`
	StepDefinitions string `json:"stepDefinitions"`
	POM             string `json:"pom"`
}

// Empty - reports whether nothing was generated
func (g GeneratedCode) Empty() bool {
	return g.Gherkin == "" && g.StepDefinitions == "" && g.POM == ""
}
