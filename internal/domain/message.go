package domain

import "time"

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleUser  MessageRole = "user"
	RoleModel MessageRole = "model"
)

// Message is one entry of a conversation log. Order of messages in a log is
// the conversation history.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}
