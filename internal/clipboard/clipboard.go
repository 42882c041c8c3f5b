// Package clipboard reads and writes the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
)

// ErrEmpty means the clipboard holds no text
var ErrEmpty = errors.New("clipboard is empty")

// ErrUnsupported means no clipboard utility is available
var ErrUnsupported = errors.New("no clipboard utility available (install xclip, xsel or wl-clipboard)")

// Clipboard is the clipboard capability used by the client
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

// System is the desktop clipboard
type System struct{}

// Read returns the clipboard text, ErrEmpty when it is blank
func (System) Read() (string, error) {
	if clipboard.Unsupported {
		return "", ErrUnsupported
	}

	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmpty
	}
	return text, nil
}

// Write replaces the clipboard text
func (System) Write(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}

	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// Memory is an in-process clipboard for tests and headless use
type Memory struct {
	Text string
}

func (m *Memory) Read() (string, error) {
	if strings.TrimSpace(m.Text) == "" {
		return "", ErrEmpty
	}
	return m.Text, nil
}

func (m *Memory) Write(text string) error {
	m.Text = text
	return nil
}
