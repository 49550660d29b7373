package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/teslashibe/go-hearth/pkg/agent"
	"github.com/teslashibe/go-hearth/pkg/room"
	"github.com/teslashibe/go-hearth/pkg/tool"
)

// Dialer connects to a room for a dispatch request.
type Dialer func(ctx context.Context, req DispatchRequest) (agent.Room, error)

// Config holds worker configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// Entrypoint runs each job. Required.
	Entrypoint Entrypoint

	// Dial connects to rooms. Defaults to room.Dial.
	Dial Dialer

	// RoomURL is used when a request names none.
	RoomURL string

	// Tools is reported by GET /tools.
	Tools *tool.Registry

	// ShutdownTimeout bounds how long Shutdown waits for jobs to drain.
	// Zero leaves only the caller's context.
	ShutdownTimeout time.Duration

	Logger *slog.Logger
}

// Option configures a Server.
type Option func(*Config)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(c *Config) { c.Addr = addr }
}

// WithEntrypoint sets the job entrypoint.
func WithEntrypoint(e Entrypoint) Option {
	return func(c *Config) { c.Entrypoint = e }
}

// WithDialer overrides how rooms are joined.
func WithDialer(d Dialer) Option {
	return func(c *Config) { c.Dial = d }
}

// WithRoomURL sets the default room server.
func WithRoomURL(u string) Option {
	return func(c *Config) { c.RoomURL = u }
}

// WithTools sets the catalog reported by GET /tools.
func WithTools(reg *tool.Registry) Option {
	return func(c *Config) { c.Tools = reg }
}

// WithShutdownTimeout sets the drain timeout.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Config) { c.ShutdownTimeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns the default worker configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8081",
		Dial:            dialRoom,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Entrypoint == nil {
		return ErrNoEntrypoint
	}
	if c.Dial == nil {
		return errors.New("worker: dialer required")
	}
	return nil
}

func dialRoom(ctx context.Context, req DispatchRequest) (agent.Room, error) {
	var opts []room.Option
	if req.Token != "" {
		opts = append(opts, room.WithToken(req.Token))
	}
	c, err := room.Dial(ctx, req.RoomURL, req.Room, opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}
