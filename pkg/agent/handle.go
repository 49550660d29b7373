package agent

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// SpeechHandle tracks one utterance a host is speaking. It resolves when
// playback finishes or is interrupted.
type SpeechHandle struct {
	id                 string
	text               string
	allowInterruptions bool

	done chan struct{}
	once sync.Once

	mu          sync.Mutex
	err         error
	cancel      context.CancelFunc
	interrupted bool
}

// NewSpeechHandle creates an unresolved handle.
func NewSpeechHandle(text string, allowInterruptions bool) *SpeechHandle {
	return &SpeechHandle{
		id:                 "speech_" + uuid.NewString()[:8],
		text:               text,
		allowInterruptions: allowInterruptions,
		done:               make(chan struct{}),
	}
}

// ID returns the handle's identifier.
func (h *SpeechHandle) ID() string { return h.id }

// Text returns what is being spoken.
func (h *SpeechHandle) Text() string { return h.text }

// AllowInterruptions reports whether user speech may cut this off.
func (h *SpeechHandle) AllowInterruptions() bool { return h.allowInterruptions }

// Done is closed when the handle resolves.
func (h *SpeechHandle) Done() <-chan struct{} { return h.done }

// Wait implements Awaitable.
func (h *SpeechHandle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Bind attaches the cancel func of the playback driving this handle.
func (h *SpeechHandle) Bind(cancel context.CancelFunc) {
	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()
}

// Interrupt stops playback if interruptions are allowed. It reports whether
// the handle was interrupted.
func (h *SpeechHandle) Interrupt() bool {
	if !h.allowInterruptions {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
	}

	h.mu.Lock()
	h.interrupted = true
	cancel := h.cancel
	h.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	h.Finish(ErrInterrupted)
	return true
}

// Interrupted reports whether the handle was cut off.
func (h *SpeechHandle) Interrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

// Finish resolves the handle. Later calls are ignored.
func (h *SpeechHandle) Finish(err error) {
	h.once.Do(func() {
		h.mu.Lock()
		h.err = err
		h.mu.Unlock()
		close(h.done)
	})
}
