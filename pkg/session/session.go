// Package session bootstraps a voice-assistant session for one job.
//
// A Bootstrapper probes the optional dependencies, then tries the
// integration patterns in priority order until one host starts:
//
//	b, err := session.New(session.WithFactories(factories))
//	if err != nil {
//		return err
//	}
//	return b.Run(ctx, job)
//
// Dependency and pattern failures are recovered by degrading or falling
// through. Only exhausting every pattern, or a fault after the host is
// running, is returned as an error.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/teslashibe/go-hearth/pkg/agent"
)

// Bootstrapper runs one session. It is not reusable.
type Bootstrapper struct {
	config Config
	logger *slog.Logger

	state   atomic.Int32
	pattern atomic.Int32
	ran     atomic.Bool
}

// New creates a bootstrapper from DefaultConfig and opts.
func New(opts ...Option) (*Bootstrapper, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bootstrapper{
		config: cfg,
		logger: logger.With("component", "session"),
	}, nil
}

// State returns the current lifecycle state.
func (b *Bootstrapper) State() State {
	return State(b.state.Load())
}

// Pattern returns the pattern that started, if any.
func (b *Bootstrapper) Pattern() (agent.Pattern, bool) {
	p := agent.Pattern(b.pattern.Load())
	return p, p != 0
}

func (b *Bootstrapper) setState(s State) {
	prev := State(b.state.Swap(int32(s)))
	b.logger.Info("session state", "from", prev.String(), "to", s.String())
}

// Run bootstraps and serves the session for job until it ends. job may be
// nil when no room is attached. Run returns nil when the session terminates
// normally or ctx is cancelled.
func (b *Bootstrapper) Run(ctx context.Context, job *agent.JobContext) error {
	if !b.ran.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}
	if job != nil {
		b.logger = b.logger.With("job_id", job.ID, "room", job.RoomName())
	}

	b.setState(StateProbingDependencies)
	deps := b.probe()

	b.setState(StateProbingPatterns)
	host, desc, err := b.negotiate(ctx, deps, job)
	if err != nil {
		if ctx.Err() != nil {
			b.setState(StateTerminated)
			return nil
		}
		b.setState(StateFailed)
		b.logger.Error("no integration pattern could start", "error", err)
		return err
	}
	b.pattern.Store(int32(desc.Pattern))

	b.greet(ctx, host, desc)

	b.setState(StateRunning)
	if err := b.serve(ctx, host, desc); err != nil {
		b.setState(StateFailed)
		return err
	}
	b.setState(StateTerminated)
	return nil
}

// probe builds every optional dependency. Failures leave it absent.
func (b *Bootstrapper) probe() agent.Options {
	f := b.config.Factories
	var opts agent.Options
	opts.ChatContext, _ = probe(b.logger, agent.DepChatContext, f.ChatContext)
	opts.VAD, _ = probe(b.logger, agent.DepVAD, f.VAD)
	opts.STT, _ = probe(b.logger, agent.DepSTT, f.STT)
	opts.TTS, _ = probe(b.logger, agent.DepTTS, f.TTS)
	opts.LLM, _ = probe(b.logger, agent.DepLLM, f.LLM)

	present := opts.Present()
	names := make([]string, len(present))
	for i, d := range present {
		names[i] = string(d)
	}
	b.logger.Info("dependencies probed", "present", names)
	return opts
}

// probe runs one factory, treating an error, a panic or a nil result as
// absence.
func probe[T any](logger *slog.Logger, dep agent.Dep, factory func() (T, error)) (T, bool) {
	var zero T
	if factory == nil {
		logger.Info("dependency not configured", "dep", dep)
		return zero, false
	}

	var (
		v   T
		err error
		pc  panics.Catcher
	)
	pc.Try(func() { v, err = factory() })
	if r := pc.Recovered(); r != nil {
		err = r.AsError()
	}
	if err == nil && isNil(v) {
		err = errors.New("factory returned nil")
	}
	if err != nil {
		logger.Warn("dependency unavailable", "dep", dep, "error", err)
		return zero, false
	}
	return v, true
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// negotiate tries each pattern in order and returns the first started host.
func (b *Bootstrapper) negotiate(ctx context.Context, deps agent.Options, job *agent.JobContext) (agent.Host, agent.Descriptor, error) {
	var attempts []Attempt
	for _, p := range agent.Patterns() {
		if err := ctx.Err(); err != nil {
			return nil, agent.Descriptor{}, err
		}
		logger := b.logger.With("pattern", p.String())

		if b.config.disabled(p) {
			logger.Info("pattern unavailable", "reason", "disabled")
			attempts = append(attempts, Attempt{Pattern: p, Stage: StageResolve, Err: ErrDisabled})
			continue
		}
		entry, err := b.config.Resolver.Resolve(p)
		if err != nil {
			logger.Info("pattern unavailable", "error", err)
			attempts = append(attempts, Attempt{Pattern: p, Stage: StageResolve, Err: err})
			continue
		}
		d := entry.Descriptor

		host, err := b.construct(entry, deps, job)
		if err != nil {
			logger.Info("pattern construction failed", "error", err)
			attempts = append(attempts, Attempt{Pattern: p, Stage: StageConstruct, Err: err})
			continue
		}

		if err := b.start(ctx, host, d, job); err != nil {
			if errors.Is(err, ErrMissingCapability) && p == agent.PatternA {
				logger.Error("host cannot be started", "error", err)
			} else {
				logger.Info("pattern start failed", "error", err)
			}
			attempts = append(attempts, Attempt{Pattern: p, Stage: StageStart, Err: err})
			continue
		}

		logger.Info("pattern started")
		return host, d, nil
	}
	return nil, agent.Descriptor{}, &ExhaustedError{Attempts: attempts}
}

// construct builds the host with the dependencies its pattern accepts.
func (b *Bootstrapper) construct(entry agent.Entry, deps agent.Options, job *agent.JobContext) (host agent.Host, err error) {
	d := entry.Descriptor
	opts := deps
	opts.Job = job
	switch d.ToolForm {
	case agent.ToolFormObject:
		reg := b.config.Catalog()
		if reg == nil {
			return nil, ErrNoCatalog
		}
		if opts.Functions, err = ObjectForm(reg); err != nil {
			return nil, err
		}
	case agent.ToolFormList:
		reg := b.config.FallbackCatalog()
		if reg == nil {
			return nil, ErrNoCatalog
		}
		opts.Tools = ListForm(reg)
	}
	opts = opts.Filter(d)

	var pc panics.Catcher
	pc.Try(func() { host, err = entry.Factory(opts) })
	if r := pc.Recovered(); r != nil {
		return nil, r.AsError()
	}
	if err != nil {
		return nil, err
	}
	if isNil(host) {
		return nil, ErrNilHost
	}
	return host, nil
}

// start dispatches on the start capability the descriptor declares.
func (b *Bootstrapper) start(ctx context.Context, host agent.Host, d agent.Descriptor, job *agent.JobContext) error {
	switch d.Start {
	case agent.StartNone:
		return nil
	case agent.StartBare:
		s, ok := host.(agent.Starter)
		if !ok {
			return missingCapability(d.Pattern, "Start")
		}
		return s.Start(ctx)
	case agent.StartRoom:
		s, ok := host.(agent.RoomStarter)
		if !ok {
			return missingCapability(d.Pattern, "StartRoom")
		}
		return s.StartRoom(ctx, jobRoom(job))
	case agent.StartAgent:
		s, ok := host.(agent.AgentStarter)
		if !ok {
			return missingCapability(d.Pattern, "StartAgent")
		}
		return s.StartAgent(ctx, agent.NewAgent(b.config.AgentInstructions), jobRoom(job))
	default:
		return fmt.Errorf("session: unknown start kind %s", d.Start)
	}
}

func jobRoom(job *agent.JobContext) agent.Room {
	if job == nil {
		return nil
	}
	return job.Room
}

// greet speaks the opening line. Failures are logged and ignored.
func (b *Bootstrapper) greet(ctx context.Context, host agent.Host, d agent.Descriptor) {
	var (
		w   agent.Awaitable
		err error
	)
	switch d.Greet {
	case agent.GreetNone:
		return
	case agent.GreetSay:
		if s, ok := host.(agent.Sayer); ok {
			w, err = s.Say(ctx, b.config.Greeting, true)
		} else {
			err = missingCapability(d.Pattern, "Say")
		}
	case agent.GreetReply:
		if g, ok := host.(agent.ReplyGenerator); ok {
			w, err = g.GenerateReply(ctx, b.config.Greeting)
		} else {
			err = missingCapability(d.Pattern, "GenerateReply")
		}
	}
	if err == nil && w != nil {
		err = w.Wait(ctx)
	}
	if err != nil {
		b.logger.Warn("greeting failed", "error", err)
		return
	}
	b.logger.Debug("greeted", "greeting", b.config.Greeting)
}

// serve runs the host, or idles when it has no main loop of its own.
func (b *Bootstrapper) serve(ctx context.Context, host agent.Host, d agent.Descriptor) error {
	if d.Run {
		if r, ok := host.(agent.Runner); ok {
			err := r.Run(ctx)
			if err != nil && ctx.Err() == nil {
				b.logger.Error("session failed", "error", err)
				return &RunError{Pattern: d.Pattern, Err: err}
			}
			b.logger.Info("session ended")
			return nil
		}
		b.logger.Warn("host has no run loop, idling", "error", missingCapability(d.Pattern, "Run"))
	}
	b.idle(ctx)
	return nil
}

// idle keeps the session alive until ctx is cancelled.
func (b *Bootstrapper) idle(ctx context.Context) {
	ticker := time.NewTicker(b.config.IdleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("session cancelled")
			return
		case <-ticker.C:
			b.logger.Debug("session idle")
		}
	}
}
