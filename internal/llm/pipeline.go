package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 2 * time.Second
)

// Pipeline sends one logical request through a Handle, retrying transient
// failures with exponential backoff. Retries block the caller.
type Pipeline struct {
	maxRetries int
	retryDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewPipeline creates a pipeline making at most maxRetries attempts per call
func NewPipeline(maxRetries int, retryDelay time.Duration) *Pipeline {
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Pipeline{
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		sleep:      sleepContext,
	}
}

// WithSleep replaces the backoff wait, for tests
func (p *Pipeline) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Pipeline {
	p.sleep = sleep
	return p
}

// newRetryBackoff yields retryDelay, 2*retryDelay, 4*retryDelay... and stops
// after maxRetries-1 intervals.
func (p *Pipeline) newRetryBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.retryDelay
	b.MaxInterval = 24 * time.Hour
	b.MaxElapsedTime = 0
	b.RandomizationFactor = 0
	b.Multiplier = 2.0
	b.Reset()
	return backoff.WithMaxRetries(b, uint64(p.maxRetries-1))
}

// Send delivers text on h. Transient failures that outlast the retry budget
// come back as ErrRateLimitExhausted or ErrServerErrorExhausted; every other
// failure is returned unchanged on first occurrence.
func (p *Pipeline) Send(ctx context.Context, h Handle, text string) (string, error) {
	retryBackoff := p.newRetryBackoff()

	for attempt := 1; ; attempt++ {
		reply, err := h.Send(ctx, text)
		if err == nil {
			return reply, nil
		}

		kind := KindOf(err)
		if kind != KindRateLimited && kind != KindServerError {
			return "", err
		}

		nextInterval := retryBackoff.NextBackOff()
		if nextInterval == backoff.Stop {
			log.Warn().Err(err).Str("kind", kind.String()).Int("attempts", attempt).Msg("Provider retries exhausted")
			if kind == KindRateLimited {
				return "", ErrRateLimitExhausted
			}
			return "", ErrServerErrorExhausted
		}

		log.Warn().
			Err(err).
			Str("kind", kind.String()).
			Int("attempt", attempt).
			Dur("backoff", nextInterval).
			Msg("Transient provider error, retrying")

		if err := p.sleep(ctx, nextInterval); err != nil {
			return "", err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
