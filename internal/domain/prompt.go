package domain

// DefaultPromptName is the profile used when a requested profile is missing
const DefaultPromptName = "default"

// PromptProfile configures how a conversation is bootstrapped
type PromptProfile struct {
	Name            string  `json:"name" validate:"required"`
	FirstMessage    string  `json:"first_message" validate:"required"`
	Model           string  `json:"model" validate:"required"`
	Temperature     float32 `json:"temperature" validate:"gte=0,lte=2"`
	ThinkingEnabled bool    `json:"thinking_enabled"`
}
