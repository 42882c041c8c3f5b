// Package prompt loads prompt profiles from JSON files in the prompts
// directory. Files are read on every lookup so edits apply to the next
// conversation without restarting the daemon.
package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Rrens/clipboard-ai/internal/domain"
	"github.com/go-playground/validator/v10"
)

const defaultTemperature = 0.7

// DefaultFirstMessage bootstraps the default profile
const DefaultFirstMessage = `You are an AI assistant running through clipboard-ai, a clipboard-based interface on Linux. Here's how you work:

- The user copies text to their clipboard and presses a keybind
- You receive that text and respond
- Your response is automatically copied back to their clipboard
- They can paste your response anywhere
- Conversations continue until 12 hours of inactivity

Important guidelines:
- Be concise and direct - your responses go straight to the clipboard
- Format your responses to be immediately useful when pasted
- Use markdown sparingly (only when it adds clarity)
- If the user's input is unclear, ask for clarification
- Remember context from previous messages in this conversation
- You cannot see files, images, or anything except the text they copy

Respond with ONLY: 'Ready. Paste your query.'`

// Store resolves prompt profiles from a directory of <name>.json files
type Store struct {
	dir             string
	defaultModel    string
	defaultThinking bool
}

// NewStore creates a profile store. defaultModel fills profiles that omit a model.
func NewStore(dir, defaultModel string) *Store {
	return &Store{dir: dir, defaultModel: defaultModel}
}

// WithThinking sets thinking_enabled for profiles that omit it
func (s *Store) WithThinking(enabled bool) *Store {
	s.defaultThinking = enabled
	return s
}

// EnsureDefault writes the default profile if it does not exist yet
func (s *Store) EnsureDefault() error {
	path := s.path(domain.DefaultPromptName)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat default prompt: %w", err)
	}

	profile := domain.PromptProfile{
		Name:            domain.DefaultPromptName,
		FirstMessage:    DefaultFirstMessage,
		Model:           s.defaultModel,
		Temperature:     defaultTemperature,
		ThinkingEnabled: s.defaultThinking,
	}
	return s.Save(&profile)
}

// Save writes a profile to <dir>/<name>.json
func (s *Store) Save(profile *domain.PromptProfile) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create prompts directory: %w", err)
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal prompt: %w", err)
	}

	if err := os.WriteFile(s.path(profile.Name), data, 0600); err != nil {
		return fmt.Errorf("failed to write prompt %q: %w", profile.Name, err)
	}
	return nil
}

// Resolve loads a profile by name. Missing files yield domain.ErrProfileNotFound.
func (s *Store) Resolve(name string) (*domain.PromptProfile, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, name)
		}
		return nil, fmt.Errorf("failed to read prompt %q: %w", name, err)
	}

	profile := domain.PromptProfile{
		Name:            name,
		Model:           s.defaultModel,
		Temperature:     defaultTemperature,
		ThinkingEnabled: s.defaultThinking,
	}
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode prompt %q: %w", name, err)
	}
	if profile.Model == "" {
		profile.Model = s.defaultModel
	}

	return &profile, nil
}

// Names returns the sorted profile names (file stems)
func (s *Store) Names() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), ".json"))
	}
	slices.Sort(names)
	return names, nil
}

// All loads every profile that decodes successfully, keyed by name
func (s *Store) All() (map[string]*domain.PromptProfile, error) {
	names, err := s.Names()
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]*domain.PromptProfile, len(names))
	for _, name := range names {
		p, err := s.Resolve(name)
		if err != nil {
			continue
		}
		profiles[name] = p
	}
	return profiles, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

var validate = validator.New()

// Validate checks a profile's fields. When models is non-empty the profile's
// model must be one of them.
func Validate(profile *domain.PromptProfile, models []string) []string {
	var problems []string

	if err := validate.Struct(profile); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				problems = append(problems, describe(fe))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}

	if len(models) > 0 && profile.Model != "" && !slices.Contains(models, profile.Model) {
		problems = append(problems, fmt.Sprintf("Invalid model: %s", profile.Model))
	}

	return problems
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Missing required field: %s", jsonName(fe.Field()))
	case "gte", "lte":
		return fmt.Sprintf("Temperature must be 0.0-2.0, got %v", fe.Value())
	default:
		return fmt.Sprintf("Invalid %s: %v", jsonName(fe.Field()), fe.Value())
	}
}

func jsonName(field string) string {
	switch field {
	case "FirstMessage":
		return "first_message"
	case "ThinkingEnabled":
		return "thinking_enabled"
	default:
		return strings.ToLower(field)
	}
}
