package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Rrens/clipboard-ai/internal/llm"
)

const providerName = "ollama"

// Provider implements llm.Provider for Ollama
type Provider struct {
	host         string
	defaultModel string
	client       *http.Client
}

// NewProvider creates a new Ollama provider
func NewProvider(host, defaultModel string) *Provider {
	if defaultModel == "" {
		defaultModel = "llama3.2"
	}
	return &Provider{
		host:         strings.TrimRight(host, "/"),
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: 300 * time.Second},
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return providerName
}

// AvailableModels returns list of supported models
func (p *Provider) AvailableModels() []string {
	return []string{
		"llama3.1",
		"llama3.2",
		"mistral",
		"phi3",
		"qwen2",
		"qwen3",
		"deepseek-r1",
	}
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

// IsConfigured checks if provider has a host to talk to
func (p *Provider) IsConfigured() bool {
	return p.host != ""
}

// NewHandle returns a conversation kept locally and resent on each turn
func (p *Provider) NewHandle(_ context.Context, cfg llm.HandleConfig) (llm.Handle, error) {
	if !p.IsConfigured() {
		return nil, fmt.Errorf("ollama: %w (missing host)", llm.ErrNotConfigured)
	}

	model := cfg.Model
	if model == "" {
		model = p.defaultModel
	}

	return &handle{provider: p, model: model, cfg: cfg}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Think    bool           `json:"think"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message   chatMessage `json:"message"`
	Done      bool        `json:"done"`
	EvalCount int         `json:"eval_count"`
}

type handle struct {
	provider *Provider
	model    string
	cfg      llm.HandleConfig
	messages []chatMessage
}

func (h *handle) Send(ctx context.Context, text string) (string, error) {
	messages := append(h.messages[:len(h.messages):len(h.messages)], chatMessage{Role: "user", Content: text})

	reply, err := h.provider.chat(ctx, chatRequest{
		Model:    h.model,
		Messages: messages,
		Stream:   false,
		Think:    h.cfg.ThinkingEnabled,
		Options: map[string]any{
			"temperature": h.cfg.Temperature,
		},
	})
	if err != nil {
		return "", err
	}

	h.messages = append(messages, chatMessage{Role: "assistant", Content: reply})
	return reply, nil
}

func (p *Provider) chat(ctx context.Context, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", llm.NewError(providerName, llm.KindOther, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", llm.NewError(providerName, llm.KindFromHTTPStatus(resp.StatusCode),
			fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if chatResp.Message.Content == "" {
		return "", llm.NewError(providerName, llm.KindOther, errors.New("empty response from ollama"))
	}

	return chatResp.Message.Content, nil
}
