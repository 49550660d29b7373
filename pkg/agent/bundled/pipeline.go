// Package bundled provides the session hosts shipped with go-hearth.
//
// Import for side effects to register them with agent.DefaultRegistry:
//
//	import _ "github.com/teslashibe/go-hearth/pkg/agent/bundled"
//
// All three hosts share one listen, think and speak pipeline. Room audio is
// segmented by the VAD and transcribed by the STT; room text events are
// taken as user input directly. The LLM answers, calling tools for up to
// MaxToolRounds rounds, and the answer is published as a transcript and, when
// a TTS is present, as audio.
package bundled

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"

	"github.com/teslashibe/go-hearth/pkg/agent"
	"github.com/teslashibe/go-hearth/pkg/chat"
	"github.com/teslashibe/go-hearth/pkg/room"
	"github.com/teslashibe/go-hearth/pkg/speech"
	"github.com/teslashibe/go-hearth/pkg/tool"
)

const (
	// MaxToolRounds bounds how many tool-call rounds one reply may take.
	MaxToolRounds = 4

	// NoLLMReply is spoken when no language model is available.
	NoLLMReply = "Sorry, I can't think right now."

	// ErrorReply is spoken when the language model fails.
	ErrorReply = "Sorry, something went wrong. Could you say that again?"

	turnQueue  = 8
	audioChunk = 100 * time.Millisecond
)

// ErrToolRounds is returned when the model keeps calling tools.
var ErrToolRounds = errors.New("bundled: too many tool rounds")

// toolset adapts a host's tool convention for the pipeline.
type toolset interface {
	specs() []speech.ToolSpec
	call(ctx context.Context, callID, name string, args map[string]any) (string, error)
}

type noTools struct{}

func (noTools) specs() []speech.ToolSpec { return nil }
func (noTools) call(ctx context.Context, callID, name string, args map[string]any) (string, error) {
	return "", fmt.Errorf("%w: %s", agent.ErrUnknownFunction, name)
}

// objectTools is convention A.
type objectTools struct{ fc *agent.FunctionContext }

func (o objectTools) specs() []speech.ToolSpec { return o.fc.Specs() }
func (o objectTools) call(ctx context.Context, callID, name string, args map[string]any) (string, error) {
	return o.fc.Call(ctx, name, args)
}

// listTools is convention B.
type listTools []agent.FunctionTool

func (l listTools) specs() []speech.ToolSpec {
	out := make([]speech.ToolSpec, len(l))
	for i, t := range l {
		out[i] = t.Spec()
	}
	return out
}

func (l listTools) call(ctx context.Context, callID, name string, args map[string]any) (string, error) {
	t, ok := agent.FindTool(l, name)
	if !ok {
		return "", fmt.Errorf("%w: %s", agent.ErrUnknownFunction, name)
	}
	return t.Call(ctx, callID, args)
}

func toolsFor(opts agent.Options) toolset {
	switch {
	case opts.Functions != nil:
		return objectTools{opts.Functions}
	case len(opts.Tools) > 0:
		return listTools(opts.Tools)
	default:
		return noTools{}
	}
}

// pipeline is the listen, think and speak loop shared by the hosts.
type pipeline struct {
	vad speech.VAD
	stt speech.STT
	tts speech.TTS
	llm speech.LLM

	chat   *chat.Context
	tools  toolset
	logger *slog.Logger

	mu      sync.Mutex
	room    agent.Room
	current *agent.SpeechHandle

	// life bounds all playback; halt ends it when the session does.
	life     context.Context
	halt     context.CancelFunc
	playback conc.WaitGroup
}

func newPipeline(name string, opts agent.Options) *pipeline {
	cc := opts.ChatContext
	if cc == nil {
		cc = chat.NewContext()
	}
	life, halt := context.WithCancel(context.Background())
	p := &pipeline{
		life:   life,
		halt:   halt,
		vad:    opts.VAD,
		stt:    opts.STT,
		tts:    opts.TTS,
		llm:    opts.LLM,
		chat:   cc,
		tools:  toolsFor(opts),
		logger: slog.Default().With("component", "agent."+name),
	}
	p.logger.Debug("pipeline created",
		"vad", p.vad != nil,
		"stt", p.stt != nil,
		"tts", p.tts != nil,
		"llm", p.llm != nil,
		"tools", len(p.tools.specs()),
	)
	return p
}

func (p *pipeline) bind(r agent.Room) error {
	if r == nil {
		return agent.ErrNoRoom
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.room != nil {
		return agent.ErrAlreadyStarted
	}
	p.room = r
	return nil
}

func (p *pipeline) boundRoom() agent.Room {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.room
}

// say speaks text in the background and returns its handle.
func (p *pipeline) say(ctx context.Context, text string, allowInterruptions bool) *agent.SpeechHandle {
	h := agent.NewSpeechHandle(text, allowInterruptions)
	playCtx, cancel := context.WithCancel(p.life)
	h.Bind(cancel)

	p.mu.Lock()
	prev := p.current
	p.current = h
	p.mu.Unlock()

	p.playback.Go(func() {
		defer cancel()
		if prev != nil {
			_ = prev.Wait(ctx)
		}
		err := p.play(playCtx, text)
		if playCtx.Err() != nil {
			err = agent.ErrInterrupted
		}
		h.Finish(err)

		p.mu.Lock()
		if p.current == h {
			p.current = nil
		}
		p.mu.Unlock()
	})

	// Stop playback with the caller's context.
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-h.Done():
		}
	}()
	return h
}

// play publishes the transcript and, with a TTS, paced audio.
func (p *pipeline) play(ctx context.Context, text string) error {
	r := p.boundRoom()
	if r == nil {
		return agent.ErrNoRoom
	}
	if err := r.PublishTranscript(ctx, string(chat.RoleAssistant), text, true); err != nil {
		return err
	}
	if p.tts == nil {
		return nil
	}

	audio, err := p.tts.Synthesize(ctx, text)
	if err != nil {
		p.logger.Warn("synthesis failed, reply sent as text only", "error", err)
		return nil
	}
	audio = speech.ResampleBytes(audio, p.tts.SampleRate(), speech.SampleRate)

	chunk := int(speech.SampleRate*audioChunk/time.Second) * 2
	for off := 0; off < len(audio); off += chunk {
		end := min(off+chunk, len(audio))
		if err := r.PublishAudio(ctx, audio[off:end]); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(speech.Duration(audio[off:end], speech.SampleRate)):
		}
	}
	return nil
}

// interrupt cuts off interruptible speech in progress.
func (p *pipeline) interrupt() {
	p.mu.Lock()
	h := p.current
	p.mu.Unlock()
	if h == nil {
		return
	}
	if !h.AllowInterruptions() {
		p.logger.Debug("speech not interruptible", "speech_id", h.ID())
		return
	}
	if h.Interrupt() {
		p.logger.Debug("speech interrupted", "speech_id", h.ID())
	}
}

// think produces the assistant's next reply. extra is an additional system
// instruction for this reply only.
func (p *pipeline) think(ctx context.Context, user, extra string) (string, error) {
	if p.llm == nil {
		return NoLLMReply, nil
	}
	if user != "" {
		p.chat.Append(chat.User(user))
	}

	for round := 0; round <= MaxToolRounds; round++ {
		msgs := p.chat.Messages()
		if extra != "" {
			msgs = append(msgs, chat.System(extra))
		}
		specs := p.tools.specs()
		if round == MaxToolRounds {
			specs = nil
		}

		msg, err := p.llm.Chat(ctx, msgs, specs)
		if err != nil {
			return "", err
		}
		if len(msg.ToolCalls) == 0 {
			p.chat.Append(chat.Assistant(msg.Content))
			return msg.Content, nil
		}

		p.chat.Append(msg)
		for _, call := range msg.ToolCalls {
			p.chat.Append(chat.ToolResult(call.ID, call.Name, p.invoke(ctx, call)))
		}
	}
	return "", ErrToolRounds
}

// invoke runs one tool call and renders its outcome for the model.
func (p *pipeline) invoke(ctx context.Context, call chat.ToolCall) string {
	args := map[string]any{}
	if strings.TrimSpace(call.Arguments) != "" {
		dec := json.NewDecoder(strings.NewReader(call.Arguments))
		dec.UseNumber()
		if err := dec.Decode(&args); err != nil {
			p.logger.Warn("malformed tool arguments", "tool", call.Name, "error", err)
			return "error: malformed arguments: " + err.Error()
		}
	}

	out, err := p.tools.call(ctx, call.ID, call.Name, args)
	if err != nil {
		if tool.IsArgError(err) {
			p.logger.Warn("tool argument error", "tool", call.Name, "call_id", call.ID, "error", err)
		} else {
			p.logger.Warn("tool failed", "tool", call.Name, "call_id", call.ID, "error", err)
		}
		return "error: " + err.Error()
	}
	p.logger.Debug("tool called", "tool", call.Name, "call_id", call.ID)
	return out
}

// respond answers one user turn and waits for the reply to be spoken.
func (p *pipeline) respond(ctx context.Context, user string) {
	reply, err := p.think(ctx, user, "")
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("reply failed", "error", err)
		reply = ErrorReply
	}
	if strings.TrimSpace(reply) == "" {
		return
	}
	if err := p.say(ctx, reply, true).Wait(ctx); err != nil && !errors.Is(err, agent.ErrInterrupted) && ctx.Err() == nil {
		p.logger.Warn("speech failed", "error", err)
	}
}

// run drives the session until the room closes or ctx is cancelled.
func (p *pipeline) run(ctx context.Context) error {
	r := p.boundRoom()
	if r == nil {
		return agent.ErrNotStarted
	}
	p.logger.Info("session running", "room", r.Name())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	turns := make(chan string, turnQueue)
	pl := pool.New().WithContext(runCtx).WithCancelOnError()
	pl.Go(func(ctx context.Context) error {
		defer cancel()
		defer p.halt()
		return p.listen(ctx, r, turns)
	})
	pl.Go(func(ctx context.Context) error {
		for text := range turns {
			p.respond(ctx, text)
		}
		return nil
	})
	err := pl.Wait()
	p.playback.Wait()
	p.logger.Info("session ended", "room", r.Name())
	return err
}

// listen turns room events into user turns. It closes turns on return.
func (p *pipeline) listen(ctx context.Context, r agent.Room, turns chan<- string) error {
	defer close(turns)

	var stream speech.VADStream
	if p.vad != nil && p.stt != nil {
		stream = p.vad.NewStream()
	} else {
		p.logger.Info("speech input unavailable, listening for text only")
	}

	enqueue := func(text string) {
		select {
		case turns <- text:
		default:
			p.logger.Warn("turn queue full, dropping input")
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.Done():
			return nil
		case ev, ok := <-r.Events():
			if !ok {
				return nil
			}
			switch ev.Kind {
			case room.EventAudio:
				if stream == nil {
					continue
				}
				for _, vev := range stream.Push(ev.Audio) {
					switch vev.Type {
					case speech.SpeechStart:
						p.interrupt()
					case speech.SpeechEnd:
						text, err := p.stt.Transcribe(ctx, vev.Audio, speech.SampleRate)
						if err != nil {
							p.logger.Warn("transcription failed", "error", err)
							continue
						}
						if text == "" {
							continue
						}
						_ = r.PublishTranscript(ctx, string(chat.RoleUser), text, true)
						enqueue(text)
					}
				}
			case room.EventText:
				if strings.TrimSpace(ev.Text) == "" {
					continue
				}
				p.interrupt()
				enqueue(ev.Text)
			case room.EventParticipantJoined, room.EventParticipantLeft:
				p.logger.Info("participant update", "event", ev.Kind, "identity", ev.Identity)
			}
		}
	}
}
