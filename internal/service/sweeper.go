package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultSweepInterval is how often the sweeper checks for idleness
const DefaultSweepInterval = 60 * time.Second

// Sweeper archives an idle conversation
type Sweeper interface {
	SweepIdle(ctx context.Context) bool
}

// IdleSweeper calls SweepIdle on a fixed interval. onIdle, when set, runs
// after every sweep that archived a conversation.
type IdleSweeper struct {
	target   Sweeper
	interval time.Duration
	onIdle   func()
}

// NewIdleSweeper creates an idle sweeper
func NewIdleSweeper(target Sweeper, interval time.Duration, onIdle func()) *IdleSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &IdleSweeper{
		target:   target,
		interval: interval,
		onIdle:   onIdle,
	}
}

// Run blocks until ctx is done
func (w *IdleSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Debug().Dur("interval", w.interval).Msg("Idle sweeper started")

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Idle sweeper stopped")
			return
		case <-ticker.C:
			if w.target.SweepIdle(ctx) && w.onIdle != nil {
				w.onIdle()
			}
		}
	}
}
