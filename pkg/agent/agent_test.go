package agent_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/teslashibe/go-hearth/pkg/agent"
	"github.com/teslashibe/go-hearth/pkg/chat"
	"github.com/teslashibe/go-hearth/pkg/speech/vad"
	"github.com/teslashibe/go-hearth/pkg/tool"
)

func TestPatterns(t *testing.T) {
	assert.Equal(t, []agent.Pattern{agent.PatternA, agent.PatternB, agent.PatternC}, agent.Patterns())

	for _, p := range agent.Patterns() {
		got, err := agent.ParsePattern(" " + p.String() + " ")
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := agent.ParsePattern("legacy")
	assert.Error(t, err)
	assert.Equal(t, "pattern(9)", agent.Pattern(9).String())
}

func TestDescriptors(t *testing.T) {
	a := agent.DescriptorA()
	assert.Equal(t, agent.ToolFormObject, a.ToolForm)
	assert.Equal(t, agent.StartRoom, a.Start)
	assert.Equal(t, agent.GreetSay, a.Greet)
	assert.False(t, a.Accepts(agent.DepJob))

	b := agent.DescriptorB()
	assert.True(t, b.Accepts(agent.DepJob))
	assert.Equal(t, agent.StartNone, b.Start)

	c := agent.DescriptorC()
	assert.Equal(t, agent.ToolFormList, c.ToolForm)
	assert.Equal(t, agent.StartAgent, c.Start)
	assert.Equal(t, agent.GreetReply, c.Greet)
	assert.Equal(t, "generate_reply", c.Greet.String())
}

func TestOptionsFilter(t *testing.T) {
	fc := agent.NewFunctionContext()
	full := agent.Options{
		VAD:         vad.New(),
		ChatContext: chat.NewContext(),
		Functions:   fc,
		Tools:       []agent.FunctionTool{{Name: "x"}},
		Job:         agent.NewJobContext(nil),
	}

	assert.Equal(t, []agent.Dep{agent.DepVAD, agent.DepChatContext, agent.DepToolCatalog, agent.DepJob}, full.Present())

	a := full.Filter(agent.DescriptorA())
	assert.NotNil(t, a.VAD)
	assert.Same(t, fc, a.Functions)
	assert.Nil(t, a.Tools, "object form only")
	assert.Nil(t, a.Job)

	c := full.Filter(agent.DescriptorC())
	assert.Nil(t, c.Functions)
	assert.Len(t, c.Tools, 1)

	onlyTools := full.Filter(agent.Descriptor{Args: []agent.Dep{agent.DepToolCatalog}, ToolForm: agent.ToolFormObject})
	assert.Equal(t, []agent.Dep{agent.DepToolCatalog}, onlyTools.Present())

	assert.Empty(t, agent.Options{}.Present())
	assert.False(t, agent.Options{}.Has(agent.DepLLM))
}

func TestFunctionContext(t *testing.T) {
	fc := agent.NewFunctionContext()
	require.NoError(t, fc.Add(agent.Method{
		Name:        "ping",
		Description: "Ping",
		Params:      []tool.Param{{Name: "n", Type: tool.TypeInteger, Description: "count"}},
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			return "pong", nil
		},
	}))
	assert.ErrorIs(t, fc.Add(agent.Method{Name: "ping"}), agent.ErrDuplicateFunction)

	out, err := fc.Call(context.Background(), "ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", out)

	_, err = fc.Call(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, agent.ErrUnknownFunction)

	specs := fc.Specs()
	require.Len(t, specs, 1)
	assert.Equal(t, "ping", specs[0].Name)
	assert.Equal(t, []string{"n"}, specs[0].Parameters["required"])
}

func TestFunctionToolCall(t *testing.T) {
	defer goleak.VerifyNone(t)

	var seen *agent.RunContext
	ft := agent.FunctionTool{
		Name: "whoami",
		Fn: func(rc *agent.RunContext, args map[string]any) (string, error) {
			seen = rc
			got, ok := agent.RunContextFrom(rc.Context())
			if !ok || got != rc {
				return "", errors.New("run context not carried")
			}
			return rc.CallID, nil
		},
	}

	out, err := ft.Call(context.Background(), "call_1", nil)
	require.NoError(t, err)
	assert.Equal(t, "call_1", out)
	assert.Equal(t, "whoami", seen.Function)

	ft.Async = true
	out, err = ft.Call(context.Background(), "call_2", nil)
	require.NoError(t, err)
	assert.Equal(t, "call_2", out)
}

func TestAsyncToolHonorsContext(t *testing.T) {
	release := make(chan struct{})
	ft := agent.FunctionTool{
		Name:  "slow",
		Async: true,
		Fn: func(rc *agent.RunContext, args map[string]any) (string, error) {
			<-release
			return "late", nil
		},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := ft.Call(ctx, "c", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestFindTool(t *testing.T) {
	tools := []agent.FunctionTool{{Name: "a"}, {Name: "b"}}
	got, ok := agent.FindTool(tools, "b")
	assert.True(t, ok)
	assert.Equal(t, "b", got.Name)
	_, ok = agent.FindTool(tools, "c")
	assert.False(t, ok)
}

func TestNilRunContext(t *testing.T) {
	var rc *agent.RunContext
	assert.NotNil(t, rc.Context())
	_, ok := agent.RunContextFrom(context.Background())
	assert.False(t, ok)
}

func TestSpeechHandle(t *testing.T) {
	t.Run("finish resolves wait", func(t *testing.T) {
		h := agent.NewSpeechHandle("hello", true)
		assert.Contains(t, h.ID(), "speech_")
		go h.Finish(nil)
		assert.NoError(t, h.Wait(context.Background()))
		h.Finish(errors.New("ignored"))
		assert.NoError(t, h.Wait(context.Background()))
	})

	t.Run("interrupt cancels playback", func(t *testing.T) {
		h := agent.NewSpeechHandle("hello", true)
		ctx, cancel := context.WithCancel(context.Background())
		h.Bind(cancel)

		assert.True(t, h.AllowInterruptions())
		assert.True(t, h.Interrupt())
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
		assert.ErrorIs(t, h.Wait(context.Background()), agent.ErrInterrupted)
		assert.True(t, h.Interrupted())
		assert.False(t, h.Interrupt(), "already resolved")
	})

	t.Run("uninterruptible", func(t *testing.T) {
		h := agent.NewSpeechHandle("hello", false)
		assert.False(t, h.AllowInterruptions())
		assert.False(t, h.Interrupt())
		assert.False(t, h.Interrupted())
	})

	t.Run("wait honors context", func(t *testing.T) {
		h := agent.NewSpeechHandle("hello", true)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, h.Wait(ctx), context.Canceled)
	})
}

func TestRegistry(t *testing.T) {
	reg := agent.NewRegistry()
	factory := func(opts agent.Options) (agent.Host, error) { return agent.NewMockHost(opts), nil }

	_, err := reg.Resolve(agent.PatternA)
	assert.ErrorIs(t, err, agent.ErrNotRegistered)

	require.NoError(t, reg.Register(agent.DescriptorC(), factory))
	require.NoError(t, reg.Register(agent.DescriptorA(), factory))
	assert.ErrorIs(t, reg.Register(agent.DescriptorA(), factory), agent.ErrDuplicatePattern)
	assert.Error(t, reg.Register(agent.DescriptorB(), nil))

	assert.Equal(t, []agent.Pattern{agent.PatternA, agent.PatternC}, reg.Patterns())

	e, err := reg.Resolve(agent.PatternC)
	require.NoError(t, err)
	assert.Equal(t, agent.PatternC, e.Descriptor.Pattern)

	reg.Unregister(agent.PatternC)
	assert.Equal(t, []agent.Pattern{agent.PatternA}, reg.Patterns())
	assert.Panics(t, func() { reg.MustRegister(agent.DescriptorA(), factory) })
}

func TestMockHostTracksCalls(t *testing.T) {
	m := agent.NewMockHost(agent.Options{})
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	w, err := m.Say(ctx, "hi", true)
	require.NoError(t, err)
	require.NoError(t, w.Wait(ctx))
	require.NoError(t, m.Run(ctx))

	assert.Equal(t, []string{"Start", "Say", "Run"}, m.Methods())
	assert.Equal(t, 1, m.CallCount("Say"))
	assert.Equal(t, []any{"hi", true}, m.Calls()[1].Args)

	m.Reset()
	assert.Empty(t, m.Calls())
}

func TestJobContext(t *testing.T) {
	r := agent.NewMockRoom("den")
	job := agent.NewJobContext(r)
	assert.Contains(t, job.ID, "job_")
	assert.Equal(t, "den", job.RoomName())

	var nilJob *agent.JobContext
	assert.Empty(t, nilJob.RoomName())
	assert.Empty(t, agent.NewJobContext(nil).RoomName())
}
