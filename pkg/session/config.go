package session

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/teslashibe/go-hearth/pkg/agent"
	"github.com/teslashibe/go-hearth/pkg/chat"
	"github.com/teslashibe/go-hearth/pkg/homectl"
	"github.com/teslashibe/go-hearth/pkg/speech"
	"github.com/teslashibe/go-hearth/pkg/tool"
)

// Defaults.
const (
	DefaultGreeting          = "Hey! I'm ready to help you."
	DefaultAgentInstructions = "You are a friendly assistant :)"
	DefaultIdleInterval      = 60 * time.Second
)

// Resolver maps a pattern to a registered host. *agent.Registry implements it.
type Resolver interface {
	Resolve(p agent.Pattern) (agent.Entry, error)
}

var _ Resolver = (*agent.Registry)(nil)

// Factories build the optional dependencies. A nil factory leaves its
// dependency absent.
type Factories struct {
	ChatContext func() (*chat.Context, error)
	VAD         func() (speech.VAD, error)
	STT         func() (speech.STT, error)
	TTS         func() (speech.TTS, error)
	LLM         func() (speech.LLM, error)
}

// Config holds bootstrapper configuration.
type Config struct {
	Resolver  Resolver
	Factories Factories

	// Catalog declares the stateful tools. It is called once per attempt
	// so each session owns a fresh store.
	Catalog func() *tool.Registry

	// FallbackCatalog declares the flat-function tools.
	FallbackCatalog func() *tool.Registry

	Greeting          string
	AgentInstructions string
	IdleInterval      time.Duration

	// Disabled patterns are skipped as if unregistered.
	Disabled []agent.Pattern

	Logger *slog.Logger
}

// Option configures a Bootstrapper.
type Option func(*Config)

// WithResolver sets where patterns are resolved.
func WithResolver(r Resolver) Option {
	return func(c *Config) { c.Resolver = r }
}

// WithFactories sets the dependency factories.
func WithFactories(f Factories) Option {
	return func(c *Config) { c.Factories = f }
}

// WithCatalogs overrides the tool declarations.
func WithCatalogs(stateful, fallback func() *tool.Registry) Option {
	return func(c *Config) {
		c.Catalog = stateful
		c.FallbackCatalog = fallback
	}
}

// WithGreeting sets the opening line.
func WithGreeting(s string) Option {
	return func(c *Config) { c.Greeting = s }
}

// WithAgentInstructions sets the persona for agent-started hosts.
func WithAgentInstructions(s string) Option {
	return func(c *Config) { c.AgentInstructions = s }
}

// WithIdleInterval sets the keep-alive tick for hosts without Run.
func WithIdleInterval(d time.Duration) Option {
	return func(c *Config) { c.IdleInterval = d }
}

// WithDisabledPatterns turns patterns off.
func WithDisabledPatterns(ps ...agent.Pattern) Option {
	return func(c *Config) { c.Disabled = append(c.Disabled, ps...) }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns the configuration used by the hearth worker.
func DefaultConfig() Config {
	return Config{
		Resolver: agent.DefaultRegistry,
		Catalog: func() *tool.Registry {
			return homectl.NewAssistant().Catalog()
		},
		FallbackCatalog:   homectl.FallbackCatalog,
		Greeting:          DefaultGreeting,
		AgentInstructions: DefaultAgentInstructions,
		IdleInterval:      DefaultIdleInterval,
	}
}

// Apply applies options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch {
	case c.Resolver == nil:
		return fmt.Errorf("%w: resolver required", ErrInvalidConfig)
	case c.Catalog == nil || c.FallbackCatalog == nil:
		return fmt.Errorf("%w: tool catalogs required", ErrInvalidConfig)
	case strings.TrimSpace(c.Greeting) == "":
		return fmt.Errorf("%w: greeting required", ErrInvalidConfig)
	case c.IdleInterval <= 0:
		return fmt.Errorf("%w: idle interval must be positive", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) disabled(p agent.Pattern) bool {
	return slices.Contains(c.Disabled, p)
}
