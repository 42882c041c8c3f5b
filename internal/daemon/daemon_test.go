package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Rrens/clipboard-ai/internal/config"
	"github.com/Rrens/clipboard-ai/internal/ipc"
	"github.com/Rrens/clipboard-ai/internal/llm"
	"github.com/Rrens/clipboard-ai/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoProvider answers every message with "echo: <text>" and records
// everything it was sent
type echoProvider struct {
	mu   sync.Mutex
	sent []string
}

func (p *echoProvider) Name() string              { return "echo" }
func (p *echoProvider) AvailableModels() []string { return []string{"gemini-2.5-flash"} }
func (p *echoProvider) DefaultModel() string      { return "gemini-2.5-flash" }
func (p *echoProvider) IsConfigured() bool        { return true }

func (p *echoProvider) NewHandle(context.Context, llm.HandleConfig) (llm.Handle, error) {
	return p, nil
}

func (p *echoProvider) Send(_ context.Context, text string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, text)
	return "echo: " + text, nil
}

func (p *echoProvider) Sent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sent...)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("LISTEN_FDS", "")

	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.Ensure())

	sockDir, err := os.MkdirTemp("", "caid")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(sockDir) })

	return &config.Config{
		DefaultPrompt:            "default",
		DefaultModel:             "gemini-2.5-flash",
		ConversationTimeoutHours: 12,
		MaxRetries:               3,
		RetryDelaySeconds:        2,
		Daemon: config.DaemonConfig{
			SocketPath:    filepath.Join(sockDir, "d.sock"),
			SweepInterval: time.Hour,
			ReadTimeout:   time.Second,
		},
		LLM:   config.LLMConfig{Provider: "echo"},
		State: config.StateConfig{Backend: "file"},
		Paths: paths,
	}
}

type running struct {
	daemon *Daemon
	cancel context.CancelFunc
	done   chan error
}

func start(t *testing.T, cfg *config.Config, provider llm.Provider) *running {
	t.Helper()

	d, err := New(context.Background(), cfg, provider)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	r := &running{daemon: d, cancel: cancel, done: make(chan error, 1)}
	go func() { r.done <- d.Run(ctx) }()
	return r
}

func (r *running) stop(t *testing.T) {
	t.Helper()
	r.cancel()
	select {
	case err := <-r.done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}
	require.NoError(t, r.daemon.Close())
}

func TestDaemon_LifecycleAndResume(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	client := ipc.NewClient(cfg.Daemon.SocketPath, 2*time.Second)

	first := &echoProvider{}
	r := start(t, cfg, first)

	resp, err := client.Do(ctx, ipc.SendRequest{Content: "hello"})
	require.NoError(t, err)
	require.True(t, resp.OK(), resp.Message)
	assert.Equal(t, "echo: hello", resp.Message)
	assert.Equal(t, []string{prompt.DefaultFirstMessage, "hello"}, first.Sent())

	resp, err = client.Do(ctx, ipc.StatusRequest{})
	require.NoError(t, err)
	require.NotNil(t, resp.Data)
	assert.True(t, resp.Data.Active)
	assert.Equal(t, "default", resp.Data.PromptName)
	assert.Equal(t, 4, resp.Data.MessageCount)
	require.NotNil(t, resp.Data.TimeoutHours)
	assert.Equal(t, 12.0, *resp.Data.TimeoutHours)

	r.stop(t)
	_, err = os.Stat(cfg.Daemon.SocketPath)
	assert.True(t, os.IsNotExist(err), "socket should be removed on shutdown")

	// A new process replays the user messages and continues the conversation.
	second := &echoProvider{}
	r = start(t, cfg, second)
	defer r.stop(t)

	assert.Equal(t, []string{prompt.DefaultFirstMessage, "hello"}, second.Sent())

	resp, err = client.Do(ctx, ipc.SendRequest{Content: "again"})
	require.NoError(t, err)
	assert.Equal(t, "echo: again", resp.Message)

	resp, err = client.Do(ctx, ipc.NewRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Conversation reset. Next message will start fresh.", resp.Message)

	resp, err = client.Do(ctx, ipc.StatusRequest{})
	require.NoError(t, err)
	require.NotNil(t, resp.Data)
	assert.False(t, resp.Data.Active)
	assert.Equal(t, "No active conversation", resp.Data.Message)
	assert.Equal(t, 1, resp.Data.HistoryCount)
}

func TestDaemon_ExitsWhenIdle(t *testing.T) {
	cfg := testConfig(t)
	cfg.ConversationTimeoutHours = 0.05 / 3600 // 50ms
	cfg.Daemon.SweepInterval = 20 * time.Millisecond
	cfg.Daemon.ExitOnIdle = true

	r := start(t, cfg, &echoProvider{})
	client := ipc.NewClient(cfg.Daemon.SocketPath, 2*time.Second)

	resp, err := client.Do(context.Background(), ipc.SendRequest{Content: "hello"})
	require.NoError(t, err)
	require.True(t, resp.OK())

	select {
	case err := <-r.done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("daemon did not exit after idle timeout")
	}
	require.NoError(t, r.daemon.Close())

	keys, err := os.ReadDir(cfg.Paths.HistoryDir)
	require.NoError(t, err)
	assert.Len(t, keys, 1)
	_, err = os.Stat(filepath.Join(cfg.Paths.StateDir, "current.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewRouter(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = "ollama"
	cfg.LLM.Ollama.Host = "http://localhost:11434"

	router := NewRouter(cfg)

	p, err := router.Select("")
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())

	_, err = router.Select("gemini")
	assert.ErrorIs(t, err, llm.ErrNotConfigured)

	assert.Equal(t, []string{"ollama"}, router.Configured())
}
