package agent

import (
	"context"
	"sync"

	"github.com/teslashibe/go-hearth/pkg/room"
)

// MockHost implements every host capability for testing. Each method
// delegates to its function field when set and is always recorded.
type MockHost struct {
	// Options are the arguments the host was constructed with.
	Options Options

	StartFunc         func(ctx context.Context) error
	StartRoomFunc     func(ctx context.Context, r Room) error
	StartAgentFunc    func(ctx context.Context, a *Agent, r Room) error
	SayFunc           func(ctx context.Context, text string, allowInterruptions bool) (Awaitable, error)
	GenerateReplyFunc func(ctx context.Context, instructions string) (Awaitable, error)

	// RunFunc defaults to returning nil immediately.
	RunFunc func(ctx context.Context) error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Args   []any
}

// NewMockHost creates a mock constructed with opts.
func NewMockHost(opts Options) *MockHost {
	return &MockHost{Options: opts}
}

func (m *MockHost) record(method string, args ...any) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Method: method, Args: args})
	m.mu.Unlock()
}

// Start implements Starter.
func (m *MockHost) Start(ctx context.Context) error {
	m.record("Start")
	if m.StartFunc != nil {
		return m.StartFunc(ctx)
	}
	return nil
}

// StartRoom implements RoomStarter.
func (m *MockHost) StartRoom(ctx context.Context, r Room) error {
	m.record("StartRoom", r)
	if m.StartRoomFunc != nil {
		return m.StartRoomFunc(ctx, r)
	}
	return nil
}

// StartAgent implements AgentStarter.
func (m *MockHost) StartAgent(ctx context.Context, a *Agent, r Room) error {
	m.record("StartAgent", a, r)
	if m.StartAgentFunc != nil {
		return m.StartAgentFunc(ctx, a, r)
	}
	return nil
}

// Say implements Sayer.
func (m *MockHost) Say(ctx context.Context, text string, allowInterruptions bool) (Awaitable, error) {
	m.record("Say", text, allowInterruptions)
	if m.SayFunc != nil {
		return m.SayFunc(ctx, text, allowInterruptions)
	}
	return Completed(nil), nil
}

// GenerateReply implements ReplyGenerator.
func (m *MockHost) GenerateReply(ctx context.Context, instructions string) (Awaitable, error) {
	m.record("GenerateReply", instructions)
	if m.GenerateReplyFunc != nil {
		return m.GenerateReplyFunc(ctx, instructions)
	}
	return Completed(nil), nil
}

// Run implements Runner.
func (m *MockHost) Run(ctx context.Context) error {
	m.record("Run")
	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	return nil
}

// Calls returns all recorded calls.
func (m *MockHost) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallCount returns how many times method was called.
func (m *MockHost) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Methods returns the recorded method names in order.
func (m *MockHost) Methods() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	for i, c := range m.calls {
		out[i] = c.Method
	}
	return out
}

// Reset clears recorded calls.
func (m *MockHost) Reset() {
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()
}

// MockRoom implements Room for testing.
type MockRoom struct {
	RoomName string

	events    chan room.Event
	done      chan struct{}
	closeOnce sync.Once

	mu          sync.Mutex
	audio       [][]byte
	transcripts []MockTranscript
	publishErr  error
}

// MockTranscript is one published transcript line.
type MockTranscript struct {
	Role  string
	Text  string
	Final bool
}

// NewMockRoom creates an open mock room.
func NewMockRoom(name string) *MockRoom {
	return &MockRoom{
		RoomName: name,
		events:   make(chan room.Event, 64),
		done:     make(chan struct{}),
	}
}

// Name implements Room.
func (r *MockRoom) Name() string { return r.RoomName }

// Events implements Room.
func (r *MockRoom) Events() <-chan room.Event { return r.events }

// Done implements Room.
func (r *MockRoom) Done() <-chan struct{} { return r.done }

// PublishAudio implements Room.
func (r *MockRoom) PublishAudio(ctx context.Context, pcm []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.publishErr != nil {
		return r.publishErr
	}
	r.audio = append(r.audio, append([]byte(nil), pcm...))
	return nil
}

// PublishTranscript implements Room.
func (r *MockRoom) PublishTranscript(ctx context.Context, role, text string, final bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.publishErr != nil {
		return r.publishErr
	}
	r.transcripts = append(r.transcripts, MockTranscript{Role: role, Text: text, Final: final})
	return nil
}

// Emit delivers an inbound event.
func (r *MockRoom) Emit(ev room.Event) {
	r.events <- ev
}

// Close ends the room and its event stream.
func (r *MockRoom) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
		close(r.events)
	})
}

// FailPublish makes later publishes return err.
func (r *MockRoom) FailPublish(err error) {
	r.mu.Lock()
	r.publishErr = err
	r.mu.Unlock()
}

// Audio returns every published audio chunk.
func (r *MockRoom) Audio() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.audio...)
}

// Transcripts returns every published transcript line.
func (r *MockRoom) Transcripts() []MockTranscript {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]MockTranscript(nil), r.transcripts...)
}
