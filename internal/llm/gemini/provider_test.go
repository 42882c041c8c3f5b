package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Rrens/clipboard-ai/internal/llm"
	"github.com/Rrens/clipboard-ai/internal/llm/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content `json:"contents"`
	GenerationConfig struct {
		Temperature    *float64 `json:"temperature"`
		ThinkingConfig *struct {
			ThinkingBudget *int `json:"thinkingBudget"`
		} `json:"thinkingConfig"`
	} `json:"generationConfig"`
}

type reply struct {
	status int
	text   string
}

// fakeGemini answers generateContent calls with the queued replies and
// records every request body
type fakeGemini struct {
	t       *testing.T
	mu      sync.Mutex
	replies []reply
	seen    []generateRequest
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.True(f.t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-flash:generateContent"), r.URL.Path)
	assert.Equal(f.t, "test-key", r.Header.Get("x-goog-api-key"))

	var req generateRequest
	if !assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req)) {
		http.Error(w, "bad body", http.StatusTeapot)
		return
	}

	f.mu.Lock()
	f.seen = append(f.seen, req)
	if len(f.replies) == 0 {
		f.mu.Unlock()
		f.t.Error("unexpected request")
		http.Error(w, "no reply queued", http.StatusTeapot)
		return
	}
	next := f.replies[0]
	f.replies = f.replies[1:]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(next.status)
	if next.status != http.StatusOK {
		fmt.Fprintf(w, `{"error":{"code":%d,"message":%q,"status":"ERROR"}}`, next.status, next.text)
		return
	}
	fmt.Fprintf(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]}}]}`, next.text)
}

func (f *fakeGemini) requests() []generateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]generateRequest(nil), f.seen...)
}

func newHandle(t *testing.T, cfg llm.HandleConfig, replies ...reply) (llm.Handle, *fakeGemini) {
	t.Helper()

	fake := &fakeGemini{t: t, replies: replies}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg.Model = "gemini-2.5-flash"
	h, err := gemini.NewProvider("test-key", "").WithBaseURL(srv.URL).NewHandle(context.Background(), cfg)
	require.NoError(t, err)
	return h, fake
}

func roles(c []content) []string {
	var out []string
	for _, m := range c {
		out = append(out, m.Role+":"+m.Parts[0].Text)
	}
	return out
}

func TestChat_RetriedTurnIsSentOnce(t *testing.T) {
	h, fake := newHandle(t, llm.HandleConfig{Temperature: 0.7},
		reply{http.StatusTooManyRequests, "quota"},
		reply{http.StatusTooManyRequests, "quota"},
		reply{http.StatusOK, "Ready."},
		reply{http.StatusOK, "4"},
	)

	var sleeps []time.Duration
	pipeline := llm.NewPipeline(3, 2*time.Second).WithSleep(func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	})

	got, err := pipeline.Send(context.Background(), h, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Ready.", got)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeps)

	got, err = h.Send(context.Background(), "2+2?")
	require.NoError(t, err)
	assert.Equal(t, "4", got)

	reqs := fake.requests()
	require.Len(t, reqs, 4)
	for i := 0; i < 3; i++ {
		assert.Equal(t, []string{"user:hello"}, roles(reqs[i].Contents), "attempt %d", i+1)
	}
	assert.Equal(t, []string{"user:hello", "model:Ready.", "user:2+2?"}, roles(reqs[3].Contents))
}

func TestChat_FailedTurnLeavesNoTrace(t *testing.T) {
	h, fake := newHandle(t, llm.HandleConfig{},
		reply{http.StatusOK, "Ready."},
		reply{http.StatusBadRequest, "bad input"},
		reply{http.StatusOK, "ok"},
	)
	ctx := context.Background()

	_, err := h.Send(ctx, "hello")
	require.NoError(t, err)

	_, err = h.Send(ctx, "broken")
	require.Error(t, err)
	assert.Equal(t, llm.KindInvalidArgument, llm.KindOf(err))
	assert.Contains(t, err.Error(), "invalid request - ")

	_, err = h.Send(ctx, "fine")
	require.NoError(t, err)

	reqs := fake.requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, []string{"user:hello", "model:Ready.", "user:fine"}, roles(reqs[2].Contents))
}

func TestChat_GenerationConfig(t *testing.T) {
	t.Run("thinking disabled", func(t *testing.T) {
		h, fake := newHandle(t, llm.HandleConfig{Temperature: 0.3}, reply{http.StatusOK, "hi"})
		_, err := h.Send(context.Background(), "hello")
		require.NoError(t, err)

		gc := fake.requests()[0].GenerationConfig
		require.NotNil(t, gc.Temperature)
		assert.InDelta(t, 0.3, *gc.Temperature, 1e-6)
		require.NotNil(t, gc.ThinkingConfig)
		require.NotNil(t, gc.ThinkingConfig.ThinkingBudget)
		assert.Equal(t, 0, *gc.ThinkingConfig.ThinkingBudget)
	})

	t.Run("thinking enabled", func(t *testing.T) {
		h, fake := newHandle(t, llm.HandleConfig{ThinkingEnabled: true}, reply{http.StatusOK, "hi"})
		_, err := h.Send(context.Background(), "hello")
		require.NoError(t, err)

		assert.Nil(t, fake.requests()[0].GenerationConfig.ThinkingConfig)
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want llm.ErrorKind
	}{
		{"429", genai.APIError{Code: 429}, llm.KindRateLimited},
		{"500 wrapped", fmt.Errorf("x: %w", genai.APIError{Code: 500}), llm.KindServerError},
		{"503", genai.APIError{Code: 503}, llm.KindServerError},
		{"400 pointer", &genai.APIError{Code: 400}, llm.KindInvalidArgument},
		{"403", genai.APIError{Code: 403}, llm.KindOther},
		{"plain", errors.New("boom"), llm.KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gemini.Classify(tt.err))
		})
	}
}

func TestProvider_NotConfigured(t *testing.T) {
	p := gemini.NewProvider("", "")

	assert.False(t, p.IsConfigured())
	assert.Equal(t, "gemini-2.5-flash", p.DefaultModel())

	_, err := p.NewHandle(context.Background(), llm.HandleConfig{})
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
}
