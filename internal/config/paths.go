package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths are the on-disk locations derived from the config directory
type Paths struct {
	Dir        string
	ConfigFile string
	PromptsDir string
	StateDir   string
	HistoryDir string
	StateDB    string
	DebugLog   string
}

// DefaultDir returns $CLIPBOARD_AI_CONFIG_DIR or ~/.config/clipboard-ai
func DefaultDir() (string, error) {
	if dir := os.Getenv("CLIPBOARD_AI_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "clipboard-ai"), nil
}

// NewPaths derives all locations from dir
func NewPaths(dir string) Paths {
	stateDir := filepath.Join(dir, "state")
	return Paths{
		Dir:        dir,
		ConfigFile: filepath.Join(dir, "config.json"),
		PromptsDir: filepath.Join(dir, "prompts"),
		StateDir:   stateDir,
		HistoryDir: filepath.Join(stateDir, "history"),
		StateDB:    filepath.Join(stateDir, "state.db"),
		DebugLog:   filepath.Join(dir, "debug.log"),
	}
}

// Ensure creates the directory structure
func (p Paths) Ensure() error {
	for _, dir := range []string{p.Dir, p.PromptsDir, p.StateDir, p.HistoryDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}
