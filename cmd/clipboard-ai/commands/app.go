package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/Rrens/clipboard-ai/internal/clipboard"
	"github.com/Rrens/clipboard-ai/internal/config"
	"github.com/Rrens/clipboard-ai/internal/ipc"
	"github.com/rs/zerolog/log"
)

const daemonStartTimeout = 5 * time.Second

const (
	msgNotConfigured = "API key not configured. Please run: clipboard-ai --setup"
	msgEmptyClip     = "Clipboard is empty"
	msgStartFailed   = "Failed to start daemon"
	msgNothingToNew  = "No active conversation to reset"
)

var errDaemonStart = errors.New("failed to start daemon")

// app is the client side of clipboard-ai
type app struct {
	cfg         *config.Config
	clipboard   clipboard.Clipboard
	client      *ipc.Client
	startDaemon func() error
	readSecret  func() (string, error)
	in          io.Reader
	out         io.Writer
}

func newApp(cfg *config.Config) *app {
	a := &app{
		cfg:       cfg,
		clipboard: clipboard.System{},
		client:    ipc.NewClient(cfg.Daemon.SocketPath, cfg.Daemon.ClientTimeout),
		in:        os.Stdin,
		out:       os.Stdout,
	}
	a.startDaemon = func() error { return spawnDaemon(cfg.Paths.Dir) }
	a.readSecret = func() (string, error) { return readSecret(a.in, a.out) }
	return a
}

// send reads the clipboard, asks the daemon and puts the reply back
func (a *app) send(ctx context.Context) error {
	if !a.cfg.IsConfigured() {
		return a.fail(errors.New(msgNotConfigured))
	}

	content, err := a.clipboard.Read()
	if err != nil {
		if errors.Is(err, clipboard.ErrEmpty) {
			return a.fail(errors.New(msgEmptyClip))
		}
		return a.fail(err)
	}

	if err := a.ensureDaemon(ctx); err != nil {
		log.Error().Err(err).Msg("Daemon did not come up")
		return a.fail(errors.New(msgStartFailed))
	}

	resp, err := a.client.Do(ctx, ipc.SendRequest{Content: content})
	if err != nil {
		return a.fail(err)
	}
	return a.reply(resp)
}

// newConversation asks a running daemon to archive and restart
func (a *app) newConversation(ctx context.Context) error {
	resp, err := a.client.Do(ctx, ipc.NewRequest{})
	if err != nil {
		if errors.Is(err, ipc.ErrDaemonNotRunning) {
			return a.clipboard.Write(msgNothingToNew)
		}
		return a.fail(err)
	}
	return a.reply(resp)
}

func (a *app) reply(resp *ipc.Response) error {
	if !resp.OK() {
		return a.fail(errors.New(resp.Message))
	}
	return a.clipboard.Write(resp.Message)
}

// fail reports err through the clipboard, where the user is looking
func (a *app) fail(err error) error {
	if werr := a.clipboard.Write("Error: " + err.Error()); werr != nil {
		log.Error().Err(werr).Msg("Failed to write error to clipboard")
	}
	return err
}

func (a *app) ensureDaemon(ctx context.Context) error {
	if a.client.Ping(ctx) {
		return nil
	}

	log.Debug().Msg("Starting daemon")
	if err := a.startDaemon(); err != nil {
		return err
	}
	if !a.client.WaitReady(ctx, daemonStartTimeout) {
		return fmt.Errorf("%w: no answer within %s", errDaemonStart, daemonStartTimeout)
	}
	return nil
}

// spawnDaemon runs "clipboard-ai daemon" detached from this process
func spawnDaemon(dir string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}

	cmd := exec.Command(exe, "daemon", "--config-dir", dir)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", errDaemonStart, err)
	}
	return cmd.Process.Release()
}
