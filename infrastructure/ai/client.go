package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"page_capture/domain/entities"
	"page_capture/domain/interfaces"

	"github.com/sirupsen/logrus"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported generation provider")
	ErrMissingAPIKey       = errors.New("api key is not set")
)

const temperature = 0.2

type provider struct {
	endpoint string
	model    string
}

var providers = map[string]provider{
	"openai": {endpoint: "https://api.openai.com/v1/chat/completions", model: "gpt-4"},
	"groq":   {endpoint: "https://api.groq.com/openai/v1/chat/completions", model: "llama-3.3-70b-versatile"},
}

// Providers - returns the names of the supported providers
func Providers() []string {
	return []string{"openai", "groq"}
}

// Config selects the provider and credential of a Client. Model and
// Endpoint override the provider defaults when set.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	Endpoint string
}

// Client generates test code through an OpenAI-compatible chat completions API
type Client struct {
	apiKey   string
	endpoint string
	model    string
	client   *http.Client
	logger   *logrus.Logger
}

// NewClient - creates a generation client for cfg.Provider
func NewClient(cfg Config, logger *logrus.Logger) (*Client, error) {
	p, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", cfg.Provider, ErrMissingAPIKey)
	}

	c := &Client{
		apiKey:   cfg.APIKey,
		endpoint: p.endpoint,
		model:    p.model,
		client:   &http.Client{},
		logger:   logger,
	}
	if cfg.Model != "" {
		c.model = cfg.Model
	}
	if cfg.Endpoint != "" {
		c.endpoint = cfg.Endpoint
	}
	return c, nil
}

// Generate - runs one completion per requested artifact group. A feature
// file on its own comes from the feature prompt; step definitions come
// with their own feature file; page objects are always a separate call.
func (c *Client) Generate(ctx context.Context, req entities.GenerationRequest) (entities.GeneratedCode, error) {
	var out entities.GeneratedCode
	pageContext := formatPages(req.Pages)

	if req.Options.Feature && !req.Options.StepDefinitions {
		content, err := c.callAPI(ctx, featurePrompt(pageContext))
		if err != nil {
			return entities.GeneratedCode{}, fmt.Errorf("feature generation failed: %w", err)
		}
		out.Gherkin = fenced(content, "gherkin")
		if out.Gherkin == "" {
			out.Gherkin = content
		}
	}

	if req.Options.StepDefinitions {
		content, err := c.callAPI(ctx, stepDefinitionPrompt(pageContext, req.Pages))
		if err != nil {
			return entities.GeneratedCode{}, fmt.Errorf("step definition generation failed: %w", err)
		}
		out.Gherkin = fenced(content, "gherkin")
		out.StepDefinitions = fenced(content, "java")
	}

	if req.Options.PageObjects {
		content, err := c.callAPI(ctx, pageObjectPrompt(pageContext, req.Pages))
		if err != nil {
			return entities.GeneratedCode{}, fmt.Errorf("page object generation failed: %w", err)
		}
		out.POM = fenced(content, "java")
	}

	c.logger.WithFields(logrus.Fields{
		"pages":   len(req.Pages),
		"gherkin": len(out.Gherkin),
		"steps":   len(out.StepDefinitions),
		"pom":     len(out.POM),
	}).Info("code generated")
	return out, nil
}

func (c *Client) callAPI(ctx context.Context, prompt string) (string, error) {
	requestBody := chatRequest{
		Model:       c.model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: temperature,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	var apiResponse APIResponse
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", err
	}

	if len(apiResponse.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	return apiResponse.Choices[0].Message.Content, nil
}

var fences = map[string]*regexp.Regexp{
	"gherkin": regexp.MustCompile("(?s)```gherkin\n(.*?)```"),
	"java":    regexp.MustCompile("(?s)```java\n(.*?)```"),
}

// fenced returns the trimmed body of the first code block tagged lang
func fenced(content, lang string) string {
	m := fences[lang].FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type APIResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

var _ interfaces.Generator = (*Client)(nil)
