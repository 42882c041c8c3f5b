// Package vertex implements llm.Provider on Gemini models served by
// Vertex AI.
package vertex

import (
	"context"
	"fmt"

	"github.com/Rrens/clipboard-ai/internal/llm"
	"github.com/Rrens/clipboard-ai/internal/llm/gemini"
	"google.golang.org/genai"
)

const providerName = "vertex"

type Provider struct {
	project  string
	location string
	model    string
}

func NewProvider(project, location, defaultModel string) *Provider {
	return &Provider{
		project:  project,
		location: location,
		model:    defaultModel,
	}
}

func (p *Provider) Name() string {
	return providerName
}

func (p *Provider) AvailableModels() []string {
	return gemini.Models
}

func (p *Provider) DefaultModel() string {
	if p.model != "" {
		return p.model
	}
	return "gemini-2.5-flash"
}

func (p *Provider) IsConfigured() bool {
	return p.project != "" && p.location != ""
}

func (p *Provider) NewHandle(ctx context.Context, cfg llm.HandleConfig) (llm.Handle, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("vertex: %w (project and location required)", llm.ErrNotConfigured)
	}

	model := cfg.Model
	if model == "" {
		model = p.DefaultModel()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  p.project,
		Location: p.location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return gemini.NewChat(providerName, client, model, cfg), nil
}
