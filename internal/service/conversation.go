package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Rrens/clipboard-ai/internal/domain"
	"github.com/Rrens/clipboard-ai/internal/llm"
	"github.com/rs/zerolog/log"
)

// ResetMessage is returned by Reset
const ResetMessage = "Conversation reset. Next message will start fresh."

// ProfileResolver looks up prompt profiles by name
type ProfileResolver interface {
	Resolve(name string) (*domain.PromptProfile, error)
	Names() ([]string, error)
}

// ConversationService owns the single current conversation. Every read or
// change of the current session and its handle happens under mu, which is
// shared by request handling and the idle sweeper.
type ConversationService struct {
	provider      llm.Provider
	pipeline      *llm.Pipeline
	store         domain.StateStore
	profiles      ProfileResolver
	defaultPrompt string
	timeout       time.Duration
	now           func() time.Time

	mu      sync.Mutex
	current *domain.SessionState
	handle  llm.Handle
}

// NewConversationService creates a conversation service in the Empty state
func NewConversationService(
	provider llm.Provider,
	pipeline *llm.Pipeline,
	store domain.StateStore,
	profiles ProfileResolver,
	defaultPrompt string,
	timeout time.Duration,
) *ConversationService {
	if defaultPrompt == "" {
		defaultPrompt = domain.DefaultPromptName
	}
	return &ConversationService{
		provider:      provider,
		pipeline:      pipeline,
		store:         store,
		profiles:      profiles,
		defaultPrompt: defaultPrompt,
		timeout:       timeout,
		now:           time.Now,
	}
}

// WithClock replaces the time source
func (s *ConversationService) WithClock(now func() time.Time) *ConversationService {
	s.now = now
	return s
}

// Active reports whether a conversation is current
func (s *ConversationService) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Resume restores the persisted conversation, if any. An expired record is
// archived. A live record gets a new provider handle and every user message
// is replayed through it without retries; on any failure the service stays
// Empty and the record is left in place.
func (s *ConversationService) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.LoadCurrent(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load saved conversation, starting empty")
		return nil
	}
	if state == nil {
		log.Info().Msg("No saved conversation")
		return nil
	}

	if state.IsExpired(s.timeout, s.now()) {
		log.Info().
			Time("last_activity", state.LastActivity).
			Msg("Saved conversation expired, archiving")
		s.archive(ctx)
		return nil
	}

	profile, _, err := s.resolveProfile(state.PromptName)
	if err != nil {
		return fmt.Errorf("failed to resolve prompt profile: %w", err)
	}

	handle, err := s.provider.NewHandle(ctx, llm.HandleConfig{
		Model:           state.Model,
		Temperature:     profile.Temperature,
		ThinkingEnabled: profile.ThinkingEnabled,
	})
	if err != nil {
		return fmt.Errorf("failed to create provider handle: %w", err)
	}

	replay := state.UserMessages()
	for i, msg := range replay {
		if _, err := handle.Send(ctx, msg.Content); err != nil {
			closeHandle(handle)
			return fmt.Errorf("failed to replay message %d/%d: %w", i+1, len(replay), err)
		}
	}

	s.current = state
	s.handle = handle

	log.Info().
		Str("prompt", state.PromptName).
		Str("model", state.Model).
		Int("replayed", len(replay)).
		Msg("Conversation resumed")
	return nil
}

// Send routes content from a client. With no current conversation, content
// naming a prompt profile starts that profile and returns its opening reply;
// any other content starts the default profile and is then sent as the
// first real message.
func (s *ConversationService) Send(ctx context.Context, content string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.current.IsExpired(s.timeout, s.now()) {
		log.Info().Msg("Conversation expired before send, archiving")
		s.archive(ctx)
	}

	if s.current != nil {
		return s.send(ctx, content)
	}

	if name, ok := s.matchProfile(content); ok {
		return s.start(ctx, name)
	}

	if _, err := s.start(ctx, s.defaultPrompt); err != nil {
		return "", err
	}
	return s.send(ctx, content)
}

// Reset archives the current conversation and returns to Empty. With no
// current conversation it touches nothing.
func (s *ConversationService) Reset(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return ResetMessage, nil
	}

	s.archive(ctx)
	log.Info().Msg("Conversation reset")
	return ResetMessage, nil
}

// SweepIdle archives the current conversation once it has been idle longer
// than the timeout. It reports whether anything was archived.
func (s *ConversationService) SweepIdle(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || !s.current.IsExpired(s.timeout, s.now()) {
		return false
	}

	log.Info().
		Time("last_activity", s.current.LastActivity).
		Msg("Conversation idle, archiving")
	s.archive(ctx)
	return true
}

// Status reports the persisted conversation and the archive count. Storage
// failures are logged and reported as absent.
func (s *ConversationService) Status(ctx context.Context) *domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.LoadCurrent(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load current conversation for status")
		current = nil
	}

	keys, err := s.store.ListArchived(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to list archived conversations")
	}

	status := domain.NewStatus(current, len(keys))
	if current != nil {
		hours := s.timeout.Hours()
		status.TimeoutHours = &hours
	}
	return status
}

// Close releases the provider handle
func (s *ConversationService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	closeHandle(s.handle)
	s.handle = nil
	s.current = nil
	return nil
}

func (s *ConversationService) start(ctx context.Context, promptName string) (string, error) {
	profile, name, err := s.resolveProfile(promptName)
	if err != nil {
		return "", err
	}

	handle, err := s.provider.NewHandle(ctx, llm.HandleConfig{
		Model:           profile.Model,
		Temperature:     profile.Temperature,
		ThinkingEnabled: profile.ThinkingEnabled,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create provider handle: %w", err)
	}

	state := domain.NewSessionState(name, profile.Model, s.now())

	reply, err := s.pipeline.Send(ctx, handle, profile.FirstMessage)
	if err != nil {
		closeHandle(handle)
		log.Error().Err(err).Str("prompt", name).Msg("Failed to start conversation")
		return "", err
	}

	now := s.now()
	state.AddMessage(domain.RoleUser, profile.FirstMessage, now)
	state.AddMessage(domain.RoleModel, reply, now)
	s.persist(ctx, state)

	closeHandle(s.handle)
	s.current = state
	s.handle = handle

	log.Info().
		Str("prompt", name).
		Str("model", profile.Model).
		Msg("Conversation started")
	return reply, nil
}

func (s *ConversationService) send(ctx context.Context, content string) (string, error) {
	if s.current == nil {
		return "", domain.ErrNoActiveConversation
	}

	reply, err := s.pipeline.Send(ctx, s.handle, content)
	if err != nil {
		log.Error().Err(err).Msg("Failed to send message")
		return "", err
	}

	now := s.now()
	s.current.AddMessage(domain.RoleUser, content, now)
	s.current.AddMessage(domain.RoleModel, reply, now)
	s.persist(ctx, s.current)

	log.Debug().
		Int("messages", s.current.MessageCount()).
		Msg("Message exchanged")
	return reply, nil
}

// resolveProfile falls back to the default profile when name is unknown.
// It returns the name that was actually resolved.
func (s *ConversationService) resolveProfile(name string) (*domain.PromptProfile, string, error) {
	profile, err := s.profiles.Resolve(name)
	if err == nil {
		return profile, name, nil
	}

	if name == s.defaultPrompt {
		return nil, "", fmt.Errorf("failed to resolve default prompt %q: %w", name, err)
	}

	if !errors.Is(err, domain.ErrProfileNotFound) {
		log.Warn().Err(err).Str("prompt", name).Msg("Failed to load prompt profile, using default")
	} else {
		log.Warn().Str("prompt", name).Msg("Prompt profile not found, using default")
	}

	profile, err = s.profiles.Resolve(s.defaultPrompt)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve default prompt %q: %w", s.defaultPrompt, err)
	}
	return profile, s.defaultPrompt, nil
}

// matchProfile reports the profile whose name equals content, ignoring case
// and surrounding whitespace
func (s *ConversationService) matchProfile(content string) (string, bool) {
	names, err := s.profiles.Names()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to list prompt profiles")
		return "", false
	}

	want := strings.TrimSpace(content)
	for _, name := range names {
		if strings.EqualFold(want, name) {
			return name, true
		}
	}
	return "", false
}

// persist saves state; a storage failure is logged, never fatal
func (s *ConversationService) persist(ctx context.Context, state *domain.SessionState) {
	if err := s.store.SaveCurrent(ctx, state); err != nil {
		log.Warn().Err(err).Msg("Failed to save conversation")
	}
}

// archive moves the persisted record to history and clears memory
func (s *ConversationService) archive(ctx context.Context) {
	archived, err := s.store.ArchiveCurrent(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to archive conversation")
	} else if archived {
		log.Info().Msg("Conversation archived")
	}

	closeHandle(s.handle)
	s.current = nil
	s.handle = nil
}

func closeHandle(h llm.Handle) {
	if h == nil {
		return
	}
	if c, ok := h.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Debug().Err(err).Msg("Failed to close provider handle")
		}
	}
}
