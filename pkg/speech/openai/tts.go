package openai

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/teslashibe/go-hearth/pkg/speech"
)

const providerTTS = "tts"

// TTS synthesizes speech through /audio/speech as raw PCM.
type TTS struct {
	client
}

// NewTTS creates a synthesis provider.
func NewTTS(opts ...Option) (*TTS, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &TTS{client: newClient(cfg, providerTTS)}, nil
}

// Synthesize implements speech.TTS.
func (t *TTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	start := time.Now()

	resp, err := t.postJSON(ctx, "/audio/speech", map[string]any{
		"model":           t.config.TTSModel,
		"voice":           t.config.Voice,
		"input":           text,
		"response_format": "pcm",
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerTTS, fmt.Errorf("read response: %w", err))
	}

	t.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", time.Since(start).Milliseconds(),
		"voice", t.config.Voice,
	)
	return audio, nil
}

// SampleRate implements speech.TTS.
func (t *TTS) SampleRate() int { return ttsSampleRate }

// Voice returns the configured voice.
func (t *TTS) Voice() string { return t.config.Voice }

var _ speech.TTS = (*TTS)(nil)
