package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures for the retry policy
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindRateLimited
	KindServerError
	KindInvalidArgument
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	case KindInvalidArgument:
		return "invalid_argument"
	default:
		return "other"
	}
}

var (
	ErrRateLimitExhausted   = errors.New("rate limit exceeded after retries")
	ErrServerErrorExhausted = errors.New("server error after retries")
	ErrNotConfigured        = errors.New("provider is not configured")
)

// ProviderError wraps a provider failure with its classification
type ProviderError struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Kind == KindInvalidArgument {
		return fmt.Sprintf("invalid request - %v", e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure may succeed on retry
func (e *ProviderError) Transient() bool {
	return e.Kind == KindRateLimited || e.Kind == KindServerError
}

// NewError wraps err with kind unless err is nil
func NewError(provider string, kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Kind: kind, Provider: provider, Err: err}
}

// KindOf returns the classification of err, KindOther when unclassified
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindOther
}

// KindFromHTTPStatus maps an HTTP status code to an ErrorKind
func KindFromHTTPStatus(code int) ErrorKind {
	switch {
	case code == 429:
		return KindRateLimited
	case code == 400:
		return KindInvalidArgument
	case code >= 500 && code <= 599:
		return KindServerError
	default:
		return KindOther
	}
}
