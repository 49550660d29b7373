// Package openai provides speech providers backed by OpenAI-compatible
// HTTP APIs: Whisper-style transcription, audio/speech synthesis and chat
// completions with tool calls.
//
// Constructors read OPENAI_API_KEY and OPENAI_BASE_URL unless options
// override them, and fail with ErrNoAPIKey when no key is available.
package openai

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// Defaults for OpenAI.
const (
	DefaultBaseURL  = "https://api.openai.com/v1"
	DefaultLLMModel = "gpt-4o-mini"
	DefaultSTTModel = "whisper-1"
	DefaultTTSModel = "tts-1"
	DefaultVoice    = "shimmer"

	// audio/speech returns raw PCM16 mono at this rate for response_format=pcm.
	ttsSampleRate = 24000
)

// Config holds provider configuration.
type Config struct {
	// Connection
	BaseURL string
	APIKey  string

	// Models
	LLMModel string
	STTModel string
	TTSModel string
	Voice    string

	// Language hints transcription. Optional.
	Language string

	// Request defaults
	MaxTokens   int
	Temperature float64

	// Timeouts and retries
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring providers.
type Option func(*Config)

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithLLMModel sets the chat model.
func WithLLMModel(model string) Option {
	return func(c *Config) { c.LLMModel = model }
}

// WithSTTModel sets the transcription model.
func WithSTTModel(model string) Option {
	return func(c *Config) { c.STTModel = model }
}

// WithTTSModel sets the synthesis model.
func WithTTSModel(model string) Option {
	return func(c *Config) { c.TTSModel = model }
}

// WithVoice sets the synthesis voice.
func WithVoice(voice string) Option {
	return func(c *Config) { c.Voice = voice }
}

// WithLanguage sets the transcription language hint.
func WithLanguage(lang string) Option {
	return func(c *Config) { c.Language = lang }
}

// WithMaxTokens sets the completion token limit.
func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithRetry configures retry behavior.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns defaults, with credentials taken from the environment.
func DefaultConfig() *Config {
	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Config{
		BaseURL:     baseURL,
		APIKey:      os.Getenv("OPENAI_API_KEY"),
		LLMModel:    DefaultLLMModel,
		STTModel:    DefaultSTTModel,
		TTSModel:    DefaultTTSModel,
		Voice:       DefaultVoice,
		MaxTokens:   512,
		Temperature: 0.7,
		Timeout:     30 * time.Second,
		MaxRetries:  2,
		RetryDelay:  200 * time.Millisecond,
		Logger:      slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrNoAPIKey
	}
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}
	return nil
}

func newConfig(opts []Option) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return cfg, nil
}
