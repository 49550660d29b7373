package bundled

import (
	"context"
	"errors"
	"strings"

	"github.com/teslashibe/go-hearth/pkg/agent"
	"github.com/teslashibe/go-hearth/pkg/chat"
)

func init() {
	agent.Register(agent.DescriptorC(), func(opts agent.Options) (agent.Host, error) {
		return NewAgentSession(opts), nil
	})
}

// AgentSession runs an agent persona in a room. Tools come as a list in the
// session options.
type AgentSession struct {
	p     *pipeline
	agent *agent.Agent
}

var (
	_ agent.AgentStarter   = (*AgentSession)(nil)
	_ agent.ReplyGenerator = (*AgentSession)(nil)
	_ agent.Runner         = (*AgentSession)(nil)
)

// NewAgentSession creates an unstarted session.
func NewAgentSession(opts agent.Options) *AgentSession {
	return &AgentSession{p: newPipeline("agent_session", opts)}
}

// StartAgent binds the session to r and adopts a's instructions.
func (s *AgentSession) StartAgent(ctx context.Context, a *agent.Agent, r agent.Room) error {
	if a == nil {
		return errors.New("bundled: nil agent")
	}
	if err := s.p.bind(r); err != nil {
		return err
	}
	s.agent = a

	if instr := strings.TrimSpace(a.Instructions); instr != "" {
		s.p.chat.Append(chat.System(instr))
	}
	s.p.logger.Info("agent session started", "room", r.Name(), "tools", len(s.p.tools.specs()))
	return nil
}

// Agent returns the running persona, or nil before StartAgent.
func (s *AgentSession) Agent() *agent.Agent { return s.agent }

// GenerateReply has the model reply following instructions and speaks the
// result. Without a model the instructions are spoken as given.
func (s *AgentSession) GenerateReply(ctx context.Context, instructions string) (agent.Awaitable, error) {
	if s.p.boundRoom() == nil {
		return nil, agent.ErrNotStarted
	}
	if s.p.llm == nil {
		return s.p.say(ctx, instructions, true), nil
	}
	reply, err := s.p.think(ctx, "", instructions)
	if err != nil {
		return nil, err
	}
	return s.p.say(ctx, reply, true), nil
}

// Run serves the room until it closes or ctx is cancelled.
func (s *AgentSession) Run(ctx context.Context) error {
	return s.p.run(ctx)
}
