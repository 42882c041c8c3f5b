package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/clipboard-ai/internal/llm"
	"google.golang.org/genai"
)

// Chat is a conversation kept on our side and sent in full on every turn.
// A turn joins the history only once the model has answered it.
type Chat struct {
	provider string
	model    string
	config   *genai.GenerateContentConfig
	models   *genai.Models
	history  []*genai.Content
}

// NewChat starts an empty conversation with model on client. provider
// names the backend in errors.
func NewChat(provider string, client *genai.Client, model string, cfg llm.HandleConfig) *Chat {
	return &Chat{
		provider: provider,
		model:    model,
		config:   generationConfig(cfg),
		models:   client.Models,
	}
}

func (c *Chat) Send(ctx context.Context, text string) (string, error) {
	contents := append(c.history[:len(c.history):len(c.history)], genai.NewContentFromText(text, genai.RoleUser))

	res, err := c.models.GenerateContent(ctx, c.model, contents, c.config)
	if err != nil {
		return "", llm.NewError(c.provider, Classify(err), fmt.Errorf("generate content: %w", err))
	}

	reply := res.Text()
	if reply == "" {
		return "", llm.NewError(c.provider, llm.KindOther, errors.New("model returned no text"))
	}

	c.history = append(contents, genai.NewContentFromText(reply, genai.RoleModel))
	return reply, nil
}

func generationConfig(cfg llm.HandleConfig) *genai.GenerateContentConfig {
	temp := cfg.Temperature
	gc := &genai.GenerateContentConfig{
		Temperature: &temp,
	}

	// A zero budget turns thinking off; nil leaves the model default.
	if !cfg.ThinkingEnabled {
		budget := int32(0)
		gc.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: &budget}
	}

	return gc
}

// Classify maps a genai API failure onto llm error kinds
func Classify(err error) llm.ErrorKind {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return llm.KindFromHTTPStatus(apiErr.Code)
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return llm.KindFromHTTPStatus(apiErrPtr.Code)
	}

	return llm.KindOther
}
