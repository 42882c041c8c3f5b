package domain

const statusTimeFormat = "2006-01-02 15:04"

// Status is a point-in-time summary of the daemon's conversation state
type Status struct {
	Active       bool     `json:"active"`
	Message      string   `json:"message,omitempty"`
	PromptName   string   `json:"prompt_name,omitempty"`
	Model        string   `json:"model,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
	LastActivity string   `json:"last_activity,omitempty"`
	MessageCount int      `json:"message_count,omitempty"`
	HistoryCount int      `json:"history_count"`
	TimeoutHours *float64 `json:"timeout_hours,omitempty"`
}

// NewStatus builds a Status from the stored current session (may be nil)
// and the number of archived sessions.
func NewStatus(current *SessionState, historyCount int) *Status {
	if current == nil {
		return &Status{
			Active:       false,
			Message:      "No active conversation",
			HistoryCount: historyCount,
		}
	}

	return &Status{
		Active:       true,
		PromptName:   current.PromptName,
		Model:        current.Model,
		CreatedAt:    current.CreatedAt.Local().Format(statusTimeFormat),
		LastActivity: current.LastActivity.Local().Format(statusTimeFormat),
		MessageCount: current.MessageCount(),
		HistoryCount: historyCount,
	}
}
