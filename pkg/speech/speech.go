// Package speech defines the capability providers a voice session is built
// from: voice activity detection, speech-to-text, text-to-speech and a
// language model.
//
// Each provider is optional. Hosts check for nil and degrade around whatever
// is missing. Implementations live in sub-packages:
//
//	speech/vad     energy-based voice activity detection
//	speech/openai  OpenAI-compatible STT, TTS and chat completions
package speech

import (
	"context"

	"github.com/teslashibe/go-hearth/pkg/chat"
)

// SampleRate is the rate of PCM16 mono audio exchanged with rooms.
const SampleRate = 16000

// VAD creates voice activity streams.
type VAD interface {
	// NewStream starts an independent detector over one audio source.
	NewStream() VADStream
}

// VADStream segments a continuous PCM16 stream into utterances.
type VADStream interface {
	// Push feeds little-endian PCM16 mono audio at SampleRate and returns
	// any events it completed.
	Push(pcm []byte) []VADEvent

	// Flush ends any utterance in progress.
	Flush() []VADEvent
}

// VADEventType distinguishes speech boundaries.
type VADEventType int

const (
	SpeechStart VADEventType = iota
	SpeechEnd
)

// String returns a readable name.
func (t VADEventType) String() string {
	switch t {
	case SpeechStart:
		return "speech_start"
	case SpeechEnd:
		return "speech_end"
	default:
		return "unknown"
	}
}

// VADEvent marks a speech boundary. Audio holds the utterance on SpeechEnd.
type VADEvent struct {
	Type  VADEventType
	Audio []byte
}

// STT transcribes speech.
type STT interface {
	// Transcribe converts PCM16 mono audio to text.
	Transcribe(ctx context.Context, pcm []byte, sampleRate int) (string, error)
}

// TTS synthesizes speech.
type TTS interface {
	// Synthesize converts text to PCM16 mono audio at SampleRate().
	Synthesize(ctx context.Context, text string) ([]byte, error)

	// SampleRate returns the rate of synthesized audio.
	SampleRate() int
}

// ToolSpec describes a function the model may call.
type ToolSpec struct {
	Name        string
	Description string

	// Parameters as JSON Schema.
	Parameters map[string]any
}

// LLM produces the next assistant message for a conversation.
type LLM interface {
	// Chat returns the assistant's reply, which may request tool calls.
	Chat(ctx context.Context, msgs []chat.Message, tools []ToolSpec) (chat.Message, error)
}
