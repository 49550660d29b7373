package bundled

import (
	"context"

	"github.com/teslashibe/go-hearth/pkg/agent"
)

func init() {
	agent.Register(agent.DescriptorA(), func(opts agent.Options) (agent.Host, error) {
		return NewVoiceAssistant(opts), nil
	})
}

// VoiceAssistant is the highest-priority host. It takes its tools as a
// FunctionContext and is started against a room.
type VoiceAssistant struct {
	p *pipeline
}

var (
	_ agent.RoomStarter = (*VoiceAssistant)(nil)
	_ agent.Sayer       = (*VoiceAssistant)(nil)
	_ agent.Runner      = (*VoiceAssistant)(nil)
)

// NewVoiceAssistant creates an unstarted voice assistant.
func NewVoiceAssistant(opts agent.Options) *VoiceAssistant {
	return &VoiceAssistant{p: newPipeline("voice_assistant", opts)}
}

// StartRoom binds the assistant to r.
func (v *VoiceAssistant) StartRoom(ctx context.Context, r agent.Room) error {
	if err := v.p.bind(r); err != nil {
		return err
	}
	v.p.logger.Info("voice assistant started", "room", r.Name())
	return nil
}

// Say speaks text into the room.
func (v *VoiceAssistant) Say(ctx context.Context, text string, allowInterruptions bool) (agent.Awaitable, error) {
	if v.p.boundRoom() == nil {
		return nil, agent.ErrNotStarted
	}
	return v.p.say(ctx, text, allowInterruptions), nil
}

// Run serves the room until it closes or ctx is cancelled.
func (v *VoiceAssistant) Run(ctx context.Context) error {
	return v.p.run(ctx)
}
