// Package daemon wires the conversation service to the IPC server and
// runs them until shutdown.
package daemon

import (
	"context"
	"fmt"

	"github.com/Rrens/clipboard-ai/internal/config"
	"github.com/Rrens/clipboard-ai/internal/domain"
	"github.com/Rrens/clipboard-ai/internal/ipc"
	"github.com/Rrens/clipboard-ai/internal/llm"
	"github.com/Rrens/clipboard-ai/internal/prompt"
	"github.com/Rrens/clipboard-ai/internal/repository"
	"github.com/Rrens/clipboard-ai/internal/service"
	"github.com/rs/zerolog/log"
)

// Daemon owns the state store, the conversation and the socket
type Daemon struct {
	cfg    *config.Config
	store  domain.StateStore
	conv   *service.ConversationService
	server *ipc.Server
}

// New opens the state store, resumes any saved conversation and binds the
// socket. A conversation that cannot be resumed is logged and the daemon
// starts empty.
func New(ctx context.Context, cfg *config.Config, provider llm.Provider) (*Daemon, error) {
	store, err := repository.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	profiles := prompt.NewStore(cfg.Paths.PromptsDir, cfg.DefaultModel).WithThinking(cfg.ThinkingEnabled)
	if err := profiles.EnsureDefault(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create default prompt: %w", err)
	}

	pipeline := llm.NewPipeline(cfg.MaxRetries, cfg.RetryDelay())
	conv := service.NewConversationService(
		provider,
		pipeline,
		store,
		profiles,
		cfg.DefaultPrompt,
		cfg.ConversationTimeout(),
	)

	if err := conv.Resume(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to resume conversation, starting empty")
	}

	server := ipc.NewServer(conv, cfg.Daemon.ReadTimeout)
	if err := server.Listen(cfg.Daemon.SocketPath); err != nil {
		conv.Close()
		store.Close()
		return nil, err
	}

	return &Daemon{
		cfg:    cfg,
		store:  store,
		conv:   conv,
		server: server,
	}, nil
}

// Run serves requests until ctx is done or, with exit_on_idle, until the
// idle sweeper archives the conversation
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var onIdle func()
	if d.cfg.Daemon.ExitOnIdle {
		onIdle = func() {
			log.Info().
				Float64("timeout_hours", d.cfg.ConversationTimeoutHours).
				Msg("Timeout reached, shutting down")
			cancel()
		}
	}

	sweeper := service.NewIdleSweeper(d.conv, d.cfg.Daemon.SweepInterval, onIdle)
	go sweeper.Run(ctx)

	log.Info().
		Str("provider", d.cfg.LLM.Provider).
		Str("state", d.cfg.State.Backend).
		Bool("resumed", d.conv.Active()).
		Msg("Daemon started")

	err := d.server.Serve(ctx)

	log.Info().Msg("Daemon stopped")
	return err
}

// Close releases the socket, the provider handle and the state store
func (d *Daemon) Close() error {
	d.server.Close()
	d.conv.Close()
	return d.store.Close()
}

// Run builds the configured provider and runs a daemon until ctx is done
func Run(ctx context.Context, cfg *config.Config) error {
	router := NewRouter(cfg)

	provider, err := router.Select(cfg.LLM.Provider)
	if err != nil {
		return err
	}

	d, err := New(ctx, cfg, provider)
	if err != nil {
		return err
	}
	defer d.Close()

	return d.Run(ctx)
}
