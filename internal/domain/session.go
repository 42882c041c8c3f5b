package domain

import (
	"context"
	"fmt"
	"time"
)

// SessionState is the persisted form of one conversation
type SessionState struct {
	Active       bool      `json:"active"`
	PromptName   string    `json:"prompt_name"`
	Model        string    `json:"model"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	Messages     []Message `json:"messages"`
}

// NewSessionState creates an active session with an empty log
func NewSessionState(promptName, model string, now time.Time) *SessionState {
	return &SessionState{
		Active:       true,
		PromptName:   promptName,
		Model:        model,
		CreatedAt:    now,
		LastActivity: now,
		Messages:     []Message{},
	}
}

// AddMessage appends a message to the log and advances LastActivity.
// LastActivity never moves backwards.
func (s *SessionState) AddMessage(role MessageRole, content string, at time.Time) {
	s.Messages = append(s.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: at,
	})
	if at.After(s.LastActivity) {
		s.LastActivity = at
	}
}

// MessageCount returns the number of messages in the log
func (s *SessionState) MessageCount() int {
	return len(s.Messages)
}

// IsExpired reports whether more than timeout has passed since the last activity
func (s *SessionState) IsExpired(timeout time.Duration, now time.Time) bool {
	return now.Sub(s.LastActivity) > timeout
}

// UserMessages returns the user-role messages in log order
func (s *SessionState) UserMessages() []Message {
	var out []Message
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			out = append(out, m)
		}
	}
	return out
}

const archiveKeyFormat = "2006-01-02-15-04-05"

// ArchiveKey formats the sortable archive key for an archive made at t.
// Keys are UTC so they keep sorting across DST changes.
func ArchiveKey(t time.Time) string {
	return t.UTC().Format(archiveKeyFormat)
}

// CollisionKey is the n-th alternative to an archive key already taken
// within the same second. The suffix is zero-padded to sort numerically.
func CollisionKey(key string, n int) string {
	return fmt.Sprintf("%s-%03d", key, n)
}

// StateStore persists the current session and its archive.
// LoadCurrent returns (nil, nil) when no current session exists.
type StateStore interface {
	LoadCurrent(ctx context.Context) (*SessionState, error)
	SaveCurrent(ctx context.Context, state *SessionState) error
	ArchiveCurrent(ctx context.Context) (bool, error)
	DeleteCurrent(ctx context.Context) (bool, error)
	ListArchived(ctx context.Context) ([]string, error)
	LoadArchived(ctx context.Context, key string) (*SessionState, error)
	ClearAll(ctx context.Context) error
	Close() error
}
