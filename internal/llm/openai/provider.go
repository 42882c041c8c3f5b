// Package openai implements llm.Provider on OpenAI-compatible chat
// completion endpoints.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/clipboard-ai/internal/llm"
	goopenai "github.com/sashabaranov/go-openai"
)

const providerName = "openai"

// Provider implements llm.Provider for OpenAI
type Provider struct {
	apiKey       string
	baseURL      string
	defaultModel string
}

// NewProvider creates a new OpenAI provider. An empty baseURL uses the
// public OpenAI endpoint.
func NewProvider(apiKey, baseURL, defaultModel string) *Provider {
	if defaultModel == "" {
		defaultModel = goopenai.GPT4oMini
	}
	return &Provider{
		apiKey:       apiKey,
		baseURL:      baseURL,
		defaultModel: defaultModel,
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return providerName
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	return []string{
		goopenai.GPT4o,
		goopenai.GPT4oMini,
		goopenai.GPT4Dot1,
		goopenai.GPT4Dot1Mini,
		goopenai.GPT5Nano,
	}
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

// NewHandle returns a conversation that resends its history on each turn
func (p *Provider) NewHandle(_ context.Context, cfg llm.HandleConfig) (llm.Handle, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("openai: %w (missing API key)", llm.ErrNotConfigured)
	}

	model := cfg.Model
	if model == "" {
		model = p.defaultModel
	}

	clientCfg := goopenai.DefaultConfig(p.apiKey)
	if p.baseURL != "" {
		clientCfg.BaseURL = p.baseURL
	}

	return &handle{
		client:      goopenai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

type handle struct {
	client      *goopenai.Client
	model       string
	temperature float32
	messages    []goopenai.ChatCompletionMessage
}

func (h *handle) Send(ctx context.Context, text string) (string, error) {
	messages := append(h.messages[:len(h.messages):len(h.messages)], goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: text,
	})

	resp, err := h.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       h.model,
		Messages:    messages,
		Temperature: h.temperature,
	})
	if err != nil {
		return "", llm.NewError(providerName, Classify(err), err)
	}

	if len(resp.Choices) == 0 {
		return "", llm.NewError(providerName, llm.KindOther, errors.New("no response from OpenAI"))
	}

	reply := resp.Choices[0].Message
	h.messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleAssistant,
		Content: reply.Content,
	})
	return reply.Content, nil
}

// Classify maps go-openai failures onto llm error kinds
func Classify(err error) llm.ErrorKind {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return llm.KindFromHTTPStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return llm.KindFromHTTPStatus(reqErr.HTTPStatusCode)
	}

	return llm.KindOther
}
