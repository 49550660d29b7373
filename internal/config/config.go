// Package config provides configuration loading for go-hearth commands.
//
// Values come from three layers, later layers winning:
// built-in defaults, an optional YAML file, and HEARTH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultListenAddr   = ":8081"
	DefaultLogLevel     = "info"
	DefaultOpenAIURL    = "https://api.openai.com/v1"
	DefaultIdleInterval = 60 * time.Second

	DefaultGreeting     = "Hey! I'm ready to help you."
	DefaultInstructions = "You are a friendly voice assistant. Keep replies short, friendly, and natural."
)

// Config holds all configuration for the hearth worker.
// Flag parsing is done in cmd/hearth; this struct is data only.
type Config struct {
	LogLevel string `yaml:"log_level"`

	// Worker HTTP listener for job dispatch.
	ListenAddr string `yaml:"listen_addr"`

	// Room transport. Validated by the transport, not here.
	RoomURL   string `yaml:"room_url"`
	RoomToken string `yaml:"room_token"`

	// Speech providers.
	OpenAIKey     string `yaml:"-"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	LLMModel      string `yaml:"llm_model"`
	STTModel      string `yaml:"stt_model"`
	TTSModel      string `yaml:"tts_model"`
	TTSVoice      string `yaml:"tts_voice"`

	// Session behavior.
	Instructions string        `yaml:"instructions"`
	Greeting     string        `yaml:"greeting"`
	IdleInterval time.Duration `yaml:"idle_interval"`

	// DisabledPatterns marks integration patterns as unavailable, by name
	// ("voice_assistant", "auto_agent", "agent_session").
	DisabledPatterns []string `yaml:"disabled_patterns"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:      DefaultLogLevel,
		ListenAddr:    DefaultListenAddr,
		OpenAIBaseURL: DefaultOpenAIURL,
		Instructions:  DefaultInstructions,
		Greeting:      DefaultGreeting,
		IdleInterval:  DefaultIdleInterval,
	}
}

// Load returns defaults overlaid with the YAML file at path (if non-empty)
// and then with environment variables.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.LoadEnvConfig(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadFile overlays values from a YAML file.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// LoadEnvConfig loads configuration values from environment variables. A
// value that cannot be parsed is a *ConfigError.
func (c *Config) LoadEnvConfig() error {
	setString(&c.LogLevel, "HEARTH_LOG_LEVEL")
	setString(&c.ListenAddr, "HEARTH_LISTEN_ADDR")

	// LIVEKIT_URL is honored for deployments that already export it.
	setString(&c.RoomURL, "LIVEKIT_URL")
	setString(&c.RoomURL, "HEARTH_ROOM_URL")
	setString(&c.RoomToken, "HEARTH_ROOM_TOKEN")

	setString(&c.OpenAIKey, "OPENAI_API_KEY")
	setString(&c.OpenAIBaseURL, "OPENAI_BASE_URL")
	setString(&c.LLMModel, "HEARTH_LLM_MODEL")
	setString(&c.STTModel, "HEARTH_STT_MODEL")
	setString(&c.TTSModel, "HEARTH_TTS_MODEL")
	setString(&c.TTSVoice, "HEARTH_TTS_VOICE")

	setString(&c.Instructions, "HEARTH_INSTRUCTIONS")
	setString(&c.Greeting, "HEARTH_GREETING")
	if v := os.Getenv("HEARTH_IDLE_INTERVAL"); v != "" {
		d, err := parseInterval(v)
		if err != nil {
			return &ConfigError{Field: "IdleInterval", Message: fmt.Sprintf("HEARTH_IDLE_INTERVAL=%q is not a duration or a number of seconds", v)}
		}
		c.IdleInterval = d
	}
	if v := os.Getenv("HEARTH_DISABLED_PATTERNS"); v != "" {
		c.DisabledPatterns = splitList(v)
	}
	return nil
}

// parseInterval accepts a Go duration ("90s") or a bare number of seconds.
func parseInterval(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}

// Validate checks the configuration for errors.
// Credentials are not required here; providers that need them fail at
// construction and the session degrades around them.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return &ConfigError{Field: "ListenAddr", Message: "listen address must not be empty"}
	}
	if c.IdleInterval <= 0 {
		return &ConfigError{Field: "IdleInterval", Message: "idle interval must be positive"}
	}
	if strings.TrimSpace(c.Greeting) == "" {
		return &ConfigError{Field: "Greeting", Message: "greeting must not be empty"}
	}
	return nil
}

// HasRoomURL reports whether a room URL is configured.
func (c *Config) HasRoomURL() bool { return c.RoomURL != "" }

// HasOpenAIKey reports whether an OpenAI key is configured.
func (c *Config) HasOpenAIKey() bool { return c.OpenAIKey != "" }

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Field + ": " + e.Message
}

// IsConfigError reports whether err is a validation error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
