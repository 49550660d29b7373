package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/teslashibe/go-hearth/pkg/speech"
)

const providerSTT = "stt"

// STT transcribes audio through /audio/transcriptions.
type STT struct {
	client
}

// NewSTT creates a transcription provider.
func NewSTT(opts ...Option) (*STT, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &STT{client: newClient(cfg, providerSTT)}, nil
}

// Transcribe implements speech.STT.
func (s *STT) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (string, error) {
	if len(pcm) == 0 {
		return "", ErrEmptyInput
	}
	start := time.Now()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("model", s.config.STTModel); err != nil {
		return "", WrapError(providerSTT, err)
	}
	if s.config.Language != "" {
		if err := w.WriteField("language", s.config.Language); err != nil {
			return "", WrapError(providerSTT, err)
		}
	}
	if err := w.WriteField("response_format", "json"); err != nil {
		return "", WrapError(providerSTT, err)
	}
	part, err := w.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", WrapError(providerSTT, err)
	}
	if _, err := part.Write(speech.EncodeWAV(pcm, sampleRate)); err != nil {
		return "", WrapError(providerSTT, err)
	}
	if err := w.Close(); err != nil {
		return "", WrapError(providerSTT, err)
	}

	resp, err := s.post(ctx, "/audio/transcriptions", w.FormDataContentType(), body.Bytes())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", WrapError(providerSTT, fmt.Errorf("decode response: %w", err))
	}

	text := strings.TrimSpace(result.Text)
	s.logger.Debug("transcribed audio",
		"audio_ms", speech.Duration(pcm, sampleRate).Milliseconds(),
		"chars", len(text),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

var _ speech.STT = (*STT)(nil)
