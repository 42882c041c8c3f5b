package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Rrens/clipboard-ai/internal/daemon"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the conversation daemon",
	Long: `Run the background daemon that owns the conversation and answers
requests on the Unix socket. The client starts it on demand, so running it
by hand is only needed for debugging or a socket-activated service.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Int("pid", os.Getpid()).
		Str("provider", cfg.LLM.Provider).
		Str("state_backend", cfg.State.Backend).
		Msg("Starting clipboard-ai daemon")

	if err := daemon.Run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("Daemon stopped with error")
		return err
	}

	log.Info().Msg("Daemon stopped")
	return nil
}
