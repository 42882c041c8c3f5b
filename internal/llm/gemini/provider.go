// Package gemini implements llm.Provider on the Gemini API.
package gemini

import (
	"context"
	"fmt"

	"github.com/Rrens/clipboard-ai/internal/llm"
	"google.golang.org/genai"
)

const providerName = "gemini"

// Models accepted in prompt profiles
var Models = []string{
	"gemini-2.5-flash",
	"gemini-2.5-flash-lite",
	"gemini-2.5-pro",
	"gemini-3-pro-preview",
}

type Provider struct {
	apiKey  string
	model   string
	baseURL string
}

func NewProvider(apiKey, defaultModel string) *Provider {
	return &Provider{
		apiKey: apiKey,
		model:  defaultModel,
	}
}

// WithBaseURL points the client at another endpoint, e.g. a proxy
func (p *Provider) WithBaseURL(baseURL string) *Provider {
	p.baseURL = baseURL
	return p
}

func (p *Provider) Name() string {
	return providerName
}

func (p *Provider) AvailableModels() []string {
	return Models
}

func (p *Provider) DefaultModel() string {
	if p.model != "" {
		return p.model
	}
	return "gemini-2.5-flash"
}

func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

func (p *Provider) NewHandle(ctx context.Context, cfg llm.HandleConfig) (llm.Handle, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("gemini: %w (missing API key)", llm.ErrNotConfigured)
	}

	model := cfg.Model
	if model == "" {
		model = p.DefaultModel()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      p.apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: p.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return NewChat(providerName, client, model, cfg), nil
}
