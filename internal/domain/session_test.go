package domain_test

import (
	"encoding/json"
	"slices"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/Rrens/clipboard-ai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionState_AddMessage(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := domain.NewSessionState("default", "gemini-2.5-flash", start)

	s.AddMessage(domain.RoleUser, "hello", start.Add(time.Minute))
	s.AddMessage(domain.RoleModel, "hi", start.Add(2*time.Minute))

	assert.True(t, s.Active)
	assert.Equal(t, 2, s.MessageCount())
	assert.Equal(t, start, s.CreatedAt)
	assert.Equal(t, start.Add(2*time.Minute), s.LastActivity)
	assert.Equal(t, domain.RoleUser, s.Messages[0].Role)
	assert.Equal(t, "hi", s.Messages[1].Content)
}

func TestSessionState_AddMessageKeepsLastActivityMonotonic(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := domain.NewSessionState("default", "m", start)

	s.AddMessage(domain.RoleUser, "late", start.Add(time.Hour))
	s.AddMessage(domain.RoleModel, "clock skew", start.Add(time.Minute))

	assert.Equal(t, start.Add(time.Hour), s.LastActivity)
	assert.False(t, s.LastActivity.Before(s.CreatedAt))
}

func TestSessionState_IsExpired(t *testing.T) {
	timeout := 12 * time.Hour
	now := time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		epsilon time.Duration
		want    bool
	}{
		{"just past timeout", time.Nanosecond, true},
		{"one hour past", time.Hour, true},
		{"exactly at timeout", 0, false},
		{"just before timeout", -time.Nanosecond, false},
		{"well before timeout", -6 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := domain.NewSessionState("default", "m", now.Add(-48*time.Hour))
			s.LastActivity = now.Add(-(timeout + tt.epsilon))
			assert.Equal(t, tt.want, s.IsExpired(timeout, now))
		})
	}
}

func TestSessionState_UserMessages(t *testing.T) {
	now := time.Now()
	s := domain.NewSessionState("default", "m", now)
	s.AddMessage(domain.RoleUser, "one", now)
	s.AddMessage(domain.RoleModel, "r1", now)
	s.AddMessage(domain.RoleUser, "two", now)
	s.AddMessage(domain.RoleModel, "r2", now)

	users := s.UserMessages()
	require.Len(t, users, 2)
	assert.Equal(t, "one", users[0].Content)
	assert.Equal(t, "two", users[1].Content)
}

func TestSessionState_JSONShape(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := domain.NewSessionState("coder", "gemini-2.5-pro", now)
	s.AddMessage(domain.RoleUser, "hello", now)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"active", "prompt_name", "model", "created_at", "last_activity", "messages"} {
		assert.Contains(t, raw, key)
	}

	msgs := raw["messages"].([]any)
	msg := msgs[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "hello", msg["content"])
	assert.Contains(t, msg, "timestamp")
}

func TestNewStatus(t *testing.T) {
	t.Run("no current session", func(t *testing.T) {
		st := domain.NewStatus(nil, 4)
		assert.False(t, st.Active)
		assert.Equal(t, "No active conversation", st.Message)
		assert.Equal(t, 4, st.HistoryCount)
		assert.Nil(t, st.TimeoutHours)
	})

	t.Run("current session", func(t *testing.T) {
		now := time.Now()
		s := domain.NewSessionState("default", "gemini-2.5-flash", now)
		s.AddMessage(domain.RoleUser, "a", now)
		s.AddMessage(domain.RoleModel, "b", now)

		st := domain.NewStatus(s, 1)
		assert.True(t, st.Active)
		assert.Equal(t, "default", st.PromptName)
		assert.Equal(t, "gemini-2.5-flash", st.Model)
		assert.Equal(t, 2, st.MessageCount)
		assert.Equal(t, 1, st.HistoryCount)
		assert.Equal(t, now.Local().Format("2006-01-02 15:04"), st.CreatedAt)
	})
}

func TestArchiveKey_SortsChronologically(t *testing.T) {
	earlier := domain.ArchiveKey(time.Date(2025, 1, 9, 23, 59, 59, 0, time.UTC))
	later := domain.ArchiveKey(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "2025-01-09-23-59-59", earlier)
	assert.Less(t, earlier, later)
}

func TestArchiveKey_AcrossDSTFallBack(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 01:30 EDT comes before 01:10 EST on the night clocks go back
	first := time.Date(2026, 11, 1, 5, 30, 0, 0, time.UTC).In(ny)
	second := time.Date(2026, 11, 1, 6, 10, 0, 0, time.UTC).In(ny)
	require.Equal(t, 1, first.Hour())
	require.Equal(t, 1, second.Hour())
	require.True(t, first.Before(second))

	assert.Equal(t, "2026-11-01-05-30-00", domain.ArchiveKey(first))
	assert.Less(t, domain.ArchiveKey(first), domain.ArchiveKey(second))
}

func TestCollisionKey_SortsNumerically(t *testing.T) {
	base := domain.ArchiveKey(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	keys := []string{base}
	for n := 1; n <= 12; n++ {
		keys = append(keys, domain.CollisionKey(base, n))
	}

	assert.Equal(t, "2025-03-01-12-00-00-002", keys[2])
	assert.True(t, slices.IsSorted(keys), "keys out of order: %v", keys)
}
