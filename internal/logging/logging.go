// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options controls logger setup
type Options struct {
	// Level is the minimum level for the console output.
	Level string
	// Format is "console" for human-readable output or "json".
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
	// DebugLog, when set, receives every event at debug level through a
	// daily rotating file.
	DebugLog string
}

// Setup configures log.Logger and returns a closer for the debug log file
func Setup(opts Options) (io.Closer, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	zerolog.TimeFieldFormat = time.RFC3339

	var console io.Writer = out
	if opts.Format != "json" {
		console = zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime}
	}

	level := ParseLevel(opts.Level)
	writers := []io.Writer{levelWriter{w: console, min: level}}
	var closer io.Closer = nopCloser{}

	if opts.DebugLog != "" {
		rl, err := rotatelogs.New(
			opts.DebugLog+".%Y%m%d",
			rotatelogs.WithLinkName(opts.DebugLog),
			rotatelogs.WithMaxAge(7*24*time.Hour),
			rotatelogs.WithRotationTime(24*time.Hour),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to open debug log: %w", err)
		}
		writers = append(writers, rl)
		closer = rl
		level = zerolog.DebugLevel
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()

	return closer, nil
}

// ParseLevel parses a level name case-insensitively, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// levelWriter drops events below min so the console can stay quieter than
// the debug log.
type levelWriter struct {
	w   io.Writer
	min zerolog.Level
}

func (l levelWriter) Write(p []byte) (int, error) {
	return l.w.Write(p)
}

func (l levelWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < l.min {
		return len(p), nil
	}
	return l.w.Write(p)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
