package llm

import "context"

// HandleConfig is fixed for the lifetime of one conversation handle
type HandleConfig struct {
	Model           string
	Temperature     float32
	ThinkingEnabled bool
}

// Handle is a provider-side conversation. Each Send appends the user text
// and the model reply to the handle's own history.
type Handle interface {
	Send(ctx context.Context, text string) (string, error)
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// NewHandle opens a fresh conversation with an empty history
	NewHandle(ctx context.Context, cfg HandleConfig) (Handle, error)
}
