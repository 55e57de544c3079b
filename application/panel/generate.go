package panel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"page_capture/domain/entities"

	"github.com/sirupsen/logrus"
)

const (
	stepDefinitionSeparator = "\n\n// -------------------- JAVA STEP DEFINITIONS --------------------\n"
	pageObjectSeparator     = "\n\n// -------------------- PAGE OBJECT MODEL --------------------\n"
)

var ErrNothingToExport = errors.New("no content selected to copy")

// SaveSettings - stores the provider and its API key
func (p *Panel) SaveSettings(settings entities.Settings) error {
	settings.APIKey = strings.TrimSpace(settings.APIKey)
	settings.Provider = strings.ToLower(strings.TrimSpace(settings.Provider))
	if settings.APIKey == "" {
		return ErrMissingAPIKey
	}
	return p.settings.Save(settings)
}

// Settings - returns the stored provider selection
func (p *Panel) Settings() (entities.Settings, error) {
	return p.settings.Load()
}

// Generate - sends the flow pages to the generator. Nothing is sent when no
// artifact is requested or the flow holds no elements.
func (p *Panel) Generate(ctx context.Context, opts entities.GenerationOptions) (entities.GeneratedCode, error) {
	if !opts.Any() {
		return entities.GeneratedCode{}, ErrNothingRequested
	}

	p.mu.Lock()
	pages := p.payload()
	p.mu.Unlock()

	total := 0
	for _, pg := range pages {
		total += len(pg.Elements)
	}
	if total == 0 {
		return entities.GeneratedCode{}, ErrNothingSelected
	}

	settings, err := p.settings.Load()
	if err != nil {
		return entities.GeneratedCode{}, err
	}
	if settings.APIKey == "" {
		return entities.GeneratedCode{}, ErrMissingAPIKey
	}
	gen, err := p.newGenerator(settings)
	if err != nil {
		return entities.GeneratedCode{}, fmt.Errorf("failed to set up generator: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"provider": settings.Provider,
		"pages":    len(pages),
		"elements": total,
	}).Info("generating code")

	code, err := gen.Generate(ctx, entities.GenerationRequest{Pages: pages, Options: opts})
	if err != nil {
		return entities.GeneratedCode{}, err
	}

	p.mu.Lock()
	p.generated = code
	p.mu.Unlock()
	return code, nil
}

// Generated - returns the output of the last successful generation
func (p *Panel) Generated() entities.GeneratedCode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generated
}

// Export - combines the selected parts of the last generation
func (p *Panel) Export(opts entities.GenerationOptions) (string, error) {
	return Combine(p.Generated(), opts)
}

// Combine - joins the selected non-empty artifacts with separator comments
func Combine(code entities.GeneratedCode, opts entities.GenerationOptions) (string, error) {
	var parts []string
	if opts.Feature && code.Gherkin != "" {
		parts = append(parts, code.Gherkin)
	}
	if opts.StepDefinitions && code.StepDefinitions != "" {
		if len(parts) > 0 {
			parts = append(parts, stepDefinitionSeparator)
		}
		parts = append(parts, code.StepDefinitions)
	}
	if opts.PageObjects && code.POM != "" {
		if len(parts) > 0 {
			parts = append(parts, pageObjectSeparator)
		}
		parts = append(parts, code.POM)
	}
	if len(parts) == 0 {
		return "", ErrNothingToExport
	}
	return strings.Join(parts, "\n"), nil
}
