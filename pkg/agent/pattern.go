package agent

import (
	"fmt"
	"strings"
)

// Pattern is one way of wiring speech capabilities and tools into a session
// host. Patterns are tried in the order returned by Patterns.
type Pattern int

const (
	// PatternA is the voice assistant host: object-form tools, explicit
	// start, spoken greeting, optional run loop.
	PatternA Pattern = iota + 1

	// PatternB is the auto agent host: bound to the job, no start step.
	PatternB

	// PatternC is the agent session host: started with an agent and a room,
	// greets by generating a reply.
	PatternC
)

// Patterns returns every pattern in priority order.
func Patterns() []Pattern {
	return []Pattern{PatternA, PatternB, PatternC}
}

// String returns the pattern's configuration name.
func (p Pattern) String() string {
	switch p {
	case PatternA:
		return "voice_assistant"
	case PatternB:
		return "auto_agent"
	case PatternC:
		return "agent_session"
	default:
		return fmt.Sprintf("pattern(%d)", int(p))
	}
}

// ParsePattern maps a configuration name to a pattern.
func ParsePattern(s string) (Pattern, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, p := range Patterns() {
		if p.String() == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("agent: unknown pattern %q", s)
}

// Dep names a construction argument a host may accept.
type Dep string

const (
	DepVAD         Dep = "vad"
	DepSTT         Dep = "stt"
	DepTTS         Dep = "tts"
	DepLLM         Dep = "llm"
	DepChatContext Dep = "chat_ctx"
	DepToolCatalog Dep = "tool_catalog"
	DepJob         Dep = "job"
)

// ToolForm is the calling convention a host expects tools in.
type ToolForm int

const (
	// ToolFormNone means the host takes no tools.
	ToolFormNone ToolForm = iota

	// ToolFormObject is convention A: a FunctionContext of named methods.
	ToolFormObject

	// ToolFormList is convention B: a list of FunctionTools taking a
	// leading RunContext.
	ToolFormList
)

// String returns a readable name.
func (f ToolForm) String() string {
	switch f {
	case ToolFormObject:
		return "object"
	case ToolFormList:
		return "list"
	default:
		return "none"
	}
}

// StartKind says how a host is started.
type StartKind int

const (
	// StartNone hosts need no start step.
	StartNone StartKind = iota

	// StartBare hosts implement Starter.
	StartBare

	// StartRoom hosts implement RoomStarter.
	StartRoom

	// StartAgent hosts implement AgentStarter.
	StartAgent
)

// String returns a readable name.
func (k StartKind) String() string {
	switch k {
	case StartBare:
		return "bare"
	case StartRoom:
		return "room"
	case StartAgent:
		return "agent"
	default:
		return "none"
	}
}

// GreetKind says how a host greets the user.
type GreetKind int

const (
	GreetNone GreetKind = iota

	// GreetSay hosts implement Sayer.
	GreetSay

	// GreetReply hosts implement ReplyGenerator.
	GreetReply
)

// String returns a readable name.
func (k GreetKind) String() string {
	switch k {
	case GreetSay:
		return "say"
	case GreetReply:
		return "generate_reply"
	default:
		return "none"
	}
}

// Descriptor declares what a pattern's host accepts and which capabilities
// the bootstrapper may rely on.
type Descriptor struct {
	Pattern Pattern

	// Args lists the construction arguments the host accepts.
	Args []Dep

	ToolForm ToolForm
	Start    StartKind
	Greet    GreetKind

	// Run is true when the host implements Runner. Otherwise the session
	// idles until cancelled.
	Run bool
}

// Accepts reports whether the host takes dep as a construction argument.
func (d Descriptor) Accepts(dep Dep) bool {
	for _, a := range d.Args {
		if a == dep {
			return true
		}
	}
	return false
}

// DescriptorA returns the voice assistant descriptor.
func DescriptorA() Descriptor {
	return Descriptor{
		Pattern:  PatternA,
		Args:     []Dep{DepVAD, DepSTT, DepLLM, DepTTS, DepChatContext, DepToolCatalog},
		ToolForm: ToolFormObject,
		Start:    StartRoom,
		Greet:    GreetSay,
		Run:      true,
	}
}

// DescriptorB returns the auto agent descriptor.
func DescriptorB() Descriptor {
	return Descriptor{
		Pattern:  PatternB,
		Args:     []Dep{DepJob, DepLLM, DepVAD, DepSTT, DepTTS, DepChatContext, DepToolCatalog},
		ToolForm: ToolFormObject,
		Start:    StartNone,
		Greet:    GreetSay,
		Run:      true,
	}
}

// DescriptorC returns the agent session descriptor.
func DescriptorC() Descriptor {
	return Descriptor{
		Pattern:  PatternC,
		Args:     []Dep{DepVAD, DepSTT, DepLLM, DepTTS, DepChatContext, DepToolCatalog},
		ToolForm: ToolFormList,
		Start:    StartAgent,
		Greet:    GreetReply,
		Run:      true,
	}
}
