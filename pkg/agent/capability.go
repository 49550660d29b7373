package agent

import (
	"context"

	"github.com/teslashibe/go-hearth/pkg/room"
)

// Room is the connection a host talks to. *room.Client implements it.
type Room interface {
	Name() string
	Events() <-chan room.Event
	Done() <-chan struct{}
	PublishAudio(ctx context.Context, pcm []byte) error
	PublishTranscript(ctx context.Context, role, text string, final bool) error
}

var _ Room = (*room.Client)(nil)

// Awaitable is a deferred result. Wait blocks until it resolves or ctx ends.
type Awaitable interface {
	Wait(ctx context.Context) error
}

// Starter is implemented by hosts started with no arguments.
type Starter interface {
	Start(ctx context.Context) error
}

// RoomStarter is implemented by hosts started against a room.
type RoomStarter interface {
	StartRoom(ctx context.Context, r Room) error
}

// AgentStarter is implemented by hosts started with an agent and a room.
type AgentStarter interface {
	StartAgent(ctx context.Context, a *Agent, r Room) error
}

// Sayer is implemented by hosts that can speak a fixed line.
type Sayer interface {
	Say(ctx context.Context, text string, allowInterruptions bool) (Awaitable, error)
}

// ReplyGenerator is implemented by hosts that reply from instructions.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, instructions string) (Awaitable, error)
}

// Runner is implemented by hosts with their own main loop. Run blocks until
// the session ends or ctx is cancelled.
type Runner interface {
	Run(ctx context.Context) error
}

// Agent carries the persona an AgentStarter host runs. Its tools come from
// the host's options.
type Agent struct {
	Instructions string
}

// NewAgent creates an agent.
func NewAgent(instructions string) *Agent {
	return &Agent{Instructions: instructions}
}

// completed is an Awaitable that has already resolved.
type completed struct{ err error }

func (c completed) Wait(context.Context) error { return c.err }

// Completed returns an Awaitable already resolved with err.
func Completed(err error) Awaitable {
	return completed{err: err}
}
