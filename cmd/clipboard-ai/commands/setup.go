package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Rrens/clipboard-ai/internal/config"
	"github.com/Rrens/clipboard-ai/internal/repository"
	"golang.org/x/term"
)

// apiKeyField is the config key holding the credential for provider
func apiKeyField(provider string) string {
	if provider == "openai" {
		return "llm.openai.api_key"
	}
	return "api_key"
}

// setup stores an API key in the config file
func (a *app) setup() error {
	heading.Fprintln(a.out, "Clipboard AI Setup")
	fmt.Fprintln(a.out, strings.Repeat("=", 50))

	switch a.cfg.LLM.Provider {
	case "ollama", "vertex":
		fmt.Fprintf(a.out, "\nThe %s provider needs no API key. Edit %s to configure it.\n",
			a.cfg.LLM.Provider, a.cfg.Paths.ConfigFile)
		return nil
	case "openai":
		fmt.Fprintln(a.out, "\nGet your API key from: https://platform.openai.com/api-keys")
	default:
		fmt.Fprintln(a.out, "\nGet your API key from: https://aistudio.google.com/apikey")
	}

	key, err := a.readSecret()
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		fmt.Fprintln(a.out, "No API key provided. Setup cancelled.")
		return nil
	}

	if err := config.Set(a.cfg.Paths, apiKeyField(a.cfg.LLM.Provider), key); err != nil {
		return err
	}

	good.Fprintf(a.out, "\n✓ API key saved to %s\n", a.cfg.Paths.ConfigFile)
	good.Fprintln(a.out, "✓ Configuration complete!")
	fmt.Fprintln(a.out, "\nYou can now use clipboard-ai by:")
	fmt.Fprintln(a.out, "1. Copy some text")
	fmt.Fprintln(a.out, "2. Press your keybind (or run 'clipboard-ai')")
	fmt.Fprintln(a.out, "3. Paste the AI response")
	return nil
}

// reset clears the current conversation and every archive after a typed confirmation
func (a *app) reset(ctx context.Context) error {
	warn.Fprintln(a.out, "This will clear ALL conversations and state.")
	fmt.Fprint(a.out, "Are you sure? (yes/no): ")

	answer, err := readLine(a.in)
	if err != nil {
		return err
	}
	if strings.ToLower(strings.TrimSpace(answer)) != "yes" {
		fmt.Fprintln(a.out, "Reset cancelled.")
		return nil
	}

	store, err := repository.Open(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ClearAll(ctx); err != nil {
		bad.Fprintln(a.out, "✗ Failed to clear state")
		return err
	}
	good.Fprintln(a.out, "✓ All state cleared")
	return nil
}

// readSecret reads without echo from a terminal, or a plain line otherwise
func readSecret(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter your API key: ")

	if f, isFile := in.(*os.File); isFile && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		return string(b), nil
	}
	return readLine(in)
}

func readLine(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return line, nil
}
