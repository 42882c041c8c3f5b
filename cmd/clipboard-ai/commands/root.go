// Package commands provides the CLI commands for clipboard-ai.
package commands

import (
	"fmt"
	"io"

	"github.com/Rrens/clipboard-ai/internal/config"
	"github.com/Rrens/clipboard-ai/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	configDir string
	debugMode bool
)

// Root action flags
var (
	newFlag         bool
	statusFlag      bool
	listPromptsFlag bool
	setupFlag       bool
	resetFlag       bool
)

var (
	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "clipboard-ai",
	Short: "Clipboard AI - AI assistant through clipboard",
	Long: `clipboard-ai sends the text on your clipboard to an AI model and puts
the reply back on the clipboard. Conversations continue until they have
been idle for conversation_timeout_hours.

Bind 'clipboard-ai' to a key, copy some text, press the key and paste.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: closeLog,
	RunE:              runRoot,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default ~/.config/clipboard-ai)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging (persisted to config)")

	rootCmd.Flags().BoolVar(&newFlag, "new", false, "Force start new conversation")
	rootCmd.Flags().BoolVar(&statusFlag, "status", false, "Show current conversation status")
	rootCmd.Flags().BoolVar(&listPromptsFlag, "list-prompts", false, "List available prompts")
	rootCmd.Flags().BoolVar(&setupFlag, "setup", false, "Configure API key")
	rootCmd.Flags().BoolVar(&resetFlag, "reset", false, "Clear all state (dangerous!)")
	rootCmd.MarkFlagsMutuallyExclusive("new", "status", "list-prompts", "setup", "reset")

	rootCmd.SetVersionTemplate(fmt.Sprintf("clipboard-ai %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(providersCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configDir)
	if err != nil {
		return err
	}

	if debugMode && !c.Debug {
		if err := config.Set(c.Paths, "debug", true); err != nil {
			return err
		}
		c.Debug = true
	}

	opts := logging.Options{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
	}
	if c.Debug {
		opts.DebugLog = c.Paths.DebugLog
	}
	closer, err := logging.Setup(opts)
	if err != nil {
		return err
	}

	cfg = c
	logCloser = closer
	log.Debug().Str("command", cmd.Name()).Str("config_dir", c.Paths.Dir).Msg("Configuration loaded")
	return nil
}

func closeLog(cmd *cobra.Command, args []string) {
	if logCloser != nil {
		logCloser.Close()
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	a := newApp(cfg)
	ctx := cmd.Context()

	switch {
	case setupFlag:
		return a.setup()
	case listPromptsFlag:
		return a.listPrompts(ctx)
	case statusFlag:
		return a.status(ctx)
	case resetFlag:
		return a.reset(ctx)
	case newFlag:
		return a.newConversation(ctx)
	default:
		return a.send(ctx)
	}
}
