package main

import (
	"context"
	"fmt"
	"time"

	"github.com/teslashibe/go-hearth/internal/config"
	"github.com/teslashibe/go-hearth/internal/log"
	"github.com/teslashibe/go-hearth/pkg/agent"
	_ "github.com/teslashibe/go-hearth/pkg/agent/bundled"
	"github.com/teslashibe/go-hearth/pkg/chat"
	"github.com/teslashibe/go-hearth/pkg/session"
	"github.com/teslashibe/go-hearth/pkg/speech"
	"github.com/teslashibe/go-hearth/pkg/speech/openai"
	"github.com/teslashibe/go-hearth/pkg/speech/vad"
	"github.com/teslashibe/go-hearth/pkg/worker"
)

// logEnvironment reports which credentials are present without validating
// them.
func logEnvironment(c config.Config) {
	log.Component("cli").Info("environment",
		"room_url_set", c.HasRoomURL(),
		"openai_key_set", c.HasOpenAIKey(),
	)
}

// disabledPatterns parses the configured pattern names.
func disabledPatterns(c config.Config) ([]agent.Pattern, error) {
	out := make([]agent.Pattern, 0, len(c.DisabledPatterns))
	for _, name := range c.DisabledPatterns {
		p, err := agent.ParsePattern(name)
		if err != nil {
			return nil, fmt.Errorf("disabled_patterns: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// openaiOptions maps config onto provider options. Empty values keep the
// provider defaults.
func openaiOptions(c config.Config, extra ...openai.Option) []openai.Option {
	opts := []openai.Option{openai.WithLogger(log.L())}
	if c.OpenAIKey != "" {
		opts = append(opts, openai.WithAPIKey(c.OpenAIKey))
	}
	if c.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(c.OpenAIBaseURL))
	}
	return append(opts, extra...)
}

func ifSet(v string, opt func(string) openai.Option) []openai.Option {
	if v == "" {
		return nil
	}
	return []openai.Option{opt(v)}
}

// factories wires the speech providers. Constructors return concrete
// pointers, so failures are mapped to untyped nil interfaces here.
func factories(c config.Config) session.Factories {
	return session.Factories{
		ChatContext: chat.NewContextFactory(c.Instructions),
		VAD:         vad.Load,
		STT: func() (speech.STT, error) {
			s, err := openai.NewSTT(openaiOptions(c, ifSet(c.STTModel, openai.WithSTTModel)...)...)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		TTS: func() (speech.TTS, error) {
			opts := append(ifSet(c.TTSModel, openai.WithTTSModel), ifSet(c.TTSVoice, openai.WithVoice)...)
			t, err := openai.NewTTS(openaiOptions(c, opts...)...)
			if err != nil {
				return nil, err
			}
			return t, nil
		},
		LLM: func() (speech.LLM, error) {
			l, err := openai.NewLLM(openaiOptions(c, ifSet(c.LLMModel, openai.WithLLMModel)...)...)
			if err != nil {
				return nil, err
			}
			return l, nil
		},
	}
}

// newEntrypoint returns the per-job entrypoint: one bootstrapper per job.
func newEntrypoint(c config.Config) (worker.Entrypoint, error) {
	disabled, err := disabledPatterns(c)
	if err != nil {
		return nil, err
	}
	f := factories(c)
	return func(ctx context.Context, job *agent.JobContext) error {
		b, err := session.New(
			session.WithFactories(f),
			session.WithGreeting(c.Greeting),
			session.WithIdleInterval(c.IdleInterval),
			session.WithDisabledPatterns(disabled...),
			session.WithLogger(log.L()),
		)
		if err != nil {
			return err
		}
		return b.Run(ctx, job)
	}, nil
}

// shutdownTimeout bounds how long a stopping worker waits for sessions to end.
const shutdownTimeout = 15 * time.Second

// newWorker builds the worker server from config.
func newWorker(c config.Config) (*worker.Server, error) {
	entry, err := newEntrypoint(c)
	if err != nil {
		return nil, err
	}
	return worker.New(
		worker.WithAddr(c.ListenAddr),
		worker.WithEntrypoint(entry),
		worker.WithRoomURL(c.RoomURL),
		worker.WithTools(toolCatalog()),
		worker.WithShutdownTimeout(shutdownTimeout),
		worker.WithLogger(log.L()),
	)
}
