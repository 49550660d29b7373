package bundled

import (
	"context"

	"github.com/teslashibe/go-hearth/pkg/agent"
)

func init() {
	agent.Register(agent.DescriptorB(), func(opts agent.Options) (agent.Host, error) {
		return NewAutoAgent(opts)
	})
}

// AutoAgent is bound to its job's room at construction and needs no start.
type AutoAgent struct {
	p   *pipeline
	job *agent.JobContext
}

var (
	_ agent.Sayer  = (*AutoAgent)(nil)
	_ agent.Runner = (*AutoAgent)(nil)
)

// NewAutoAgent creates an agent for opts.Job. It fails without a job room.
func NewAutoAgent(opts agent.Options) (*AutoAgent, error) {
	if opts.Job == nil || opts.Job.Room == nil {
		return nil, agent.ErrNoRoom
	}
	p := newPipeline("auto_agent", opts)
	if err := p.bind(opts.Job.Room); err != nil {
		return nil, err
	}
	p.logger = p.logger.With("job_id", opts.Job.ID)
	return &AutoAgent{p: p, job: opts.Job}, nil
}

// Job returns the job the agent serves.
func (a *AutoAgent) Job() *agent.JobContext { return a.job }

// Say speaks text into the job's room.
func (a *AutoAgent) Say(ctx context.Context, text string, allowInterruptions bool) (agent.Awaitable, error) {
	return a.p.say(ctx, text, allowInterruptions), nil
}

// Run serves the job's room until it closes or ctx is cancelled.
func (a *AutoAgent) Run(ctx context.Context) error {
	return a.p.run(ctx)
}
