package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	APIKey                   string  `mapstructure:"api_key"`
	DefaultPrompt            string  `mapstructure:"default_prompt" validate:"required"`
	DefaultModel             string  `mapstructure:"default_model" validate:"required"`
	ConversationTimeoutHours float64 `mapstructure:"conversation_timeout_hours" validate:"gt=0"`
	ThinkingEnabled          bool    `mapstructure:"thinking_enabled"`
	Debug                    bool    `mapstructure:"debug"`
	MaxRetries               int     `mapstructure:"max_retries" validate:"gte=1"`
	RetryDelaySeconds        float64 `mapstructure:"retry_delay_seconds" validate:"gte=0"`

	Daemon  DaemonConfig  `mapstructure:"daemon"`
	LLM     LLMConfig     `mapstructure:"llm"`
	State   StateConfig   `mapstructure:"state"`
	Logging LoggingConfig `mapstructure:"logging"`

	Paths Paths `mapstructure:"-"`
}

type DaemonConfig struct {
	SocketPath    string        `mapstructure:"socket_path" validate:"required"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
	ExitOnIdle    bool          `mapstructure:"exit_on_idle"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	ClientTimeout time.Duration `mapstructure:"client_timeout"`
}

type LLMConfig struct {
	Provider string       `mapstructure:"provider" validate:"oneof=gemini vertex openai ollama"`
	Gemini   GeminiConfig `mapstructure:"gemini"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
	Ollama   OllamaConfig `mapstructure:"ollama"`
	Vertex   VertexConfig `mapstructure:"vertex"`
}

type GeminiConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type OllamaConfig struct {
	Host string `mapstructure:"host"`
}

type VertexConfig struct {
	Project  string `mapstructure:"project"`
	Location string `mapstructure:"location"`
}

type StateConfig struct {
	Backend string      `mapstructure:"backend" validate:"oneof=file sqlite redis"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// ConversationTimeout returns the inactivity timeout as a duration
func (c *Config) ConversationTimeout() time.Duration {
	return time.Duration(c.ConversationTimeoutHours * float64(time.Hour))
}

// RetryDelay returns the base backoff delay for provider retries
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds * float64(time.Second))
}

// IsConfigured reports whether credentials for the selected provider are present
func (c *Config) IsConfigured() bool {
	switch c.LLM.Provider {
	case "openai":
		return c.LLM.OpenAI.APIKey != ""
	case "ollama":
		return c.LLM.Ollama.Host != ""
	case "vertex":
		return c.LLM.Vertex.Project != "" && c.LLM.Vertex.Location != ""
	default:
		return c.APIKey != ""
	}
}

var validate = validator.New()

// Validate checks the loaded values for consistency
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Load reads configuration from dir/config.json and environment variables.
// An empty dir selects DefaultDir(). On first run the defaults are written
// to the config file.
func Load(dir string) (*Config, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	paths := NewPaths(dir)
	if err := paths.Ensure(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(paths.ConfigFile); errors.Is(err, fs.ErrNotExist) {
		// First run: persist the defaults so the user has a file to edit.
		if err := writeDefaults(paths); err != nil {
			return nil, err
		}
	}

	v := newViper(paths)
	v.SetEnvPrefix("CLIPBOARD_AI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Paths = paths

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Set persists a single key into the config file, keeping all other values.
// Environment overrides are not consulted so they never leak into the file.
func Set(paths Paths, key string, value any) error {
	v := newViper(paths)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	v.Set(key, value)

	if err := v.WriteConfigAs(paths.ConfigFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Chmod(paths.ConfigFile, 0600)
}

func writeDefaults(paths Paths) error {
	v := newViper(paths)
	if err := v.WriteConfigAs(paths.ConfigFile); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}
	return os.Chmod(paths.ConfigFile, 0600)
}

func newViper(paths Paths) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(paths.ConfigFile)
	v.SetConfigType("json")
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_key", "")
	v.SetDefault("default_prompt", "default")
	v.SetDefault("default_model", "gemini-2.5-flash")
	v.SetDefault("conversation_timeout_hours", 12)
	v.SetDefault("thinking_enabled", false)
	v.SetDefault("debug", false)
	v.SetDefault("max_retries", 3)
	v.SetDefault("retry_delay_seconds", 2)

	// Daemon
	v.SetDefault("daemon.socket_path", fmt.Sprintf("/tmp/clipboard-ai-%d.sock", os.Getuid()))
	v.SetDefault("daemon.sweep_interval", "60s")
	v.SetDefault("daemon.exit_on_idle", true)
	v.SetDefault("daemon.read_timeout", "30s")
	v.SetDefault("daemon.client_timeout", "30s")

	// LLM
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.gemini.base_url", "")
	v.SetDefault("llm.ollama.host", "http://localhost:11434")

	// State
	v.SetDefault("state.backend", "file")
	v.SetDefault("state.redis.host", "localhost")
	v.SetDefault("state.redis.port", 6379)
	v.SetDefault("state.redis.db", 0)
	v.SetDefault("state.redis.prefix", "clipboard-ai:")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

func bindEnvVars(v *viper.Viper) {
	// API keys
	v.BindEnv("api_key", "CLIPBOARD_AI_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("llm.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("llm.ollama.host", "OLLAMA_HOST")

	// Redis
	v.BindEnv("state.redis.password", "REDIS_PASSWORD")
}
