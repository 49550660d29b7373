// Package room connects a worker to a conversation room over WebSocket.
//
// Binary frames carry PCM16 mono audio at speech.SampleRate in both
// directions. Text frames carry JSON events:
//
//	{"type":"text","identity":"alice","text":"what's the temperature?"}
//	{"type":"participant_joined","identity":"alice"}
//	{"type":"participant_left","identity":"alice"}
//	{"type":"transcript","identity":"hearth","role":"assistant","text":"...","final":true}
package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Sentinel errors.
var (
	// ErrClosed is returned when publishing on a closed room.
	ErrClosed = errors.New("room: closed")

	// ErrNoURL is returned when dialing without a URL.
	ErrNoURL = errors.New("room: URL required")
)

// EventKind identifies an inbound room event.
type EventKind string

const (
	EventAudio             EventKind = "audio"
	EventText              EventKind = "text"
	EventParticipantJoined EventKind = "participant_joined"
	EventParticipantLeft   EventKind = "participant_left"
)

// Event is something that happened in the room.
type Event struct {
	Kind     EventKind
	Identity string
	Text     string

	// Audio holds PCM16 for EventAudio.
	Audio []byte
}

// wireMessage is the JSON shape of text frames.
type wireMessage struct {
	Type     string `json:"type"`
	Identity string `json:"identity,omitempty"`
	Role     string `json:"role,omitempty"`
	Text     string `json:"text,omitempty"`
	Final    bool   `json:"final,omitempty"`
}

// Config holds client settings.
type Config struct {
	Token            string
	Identity         string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	EventBuffer      int
	Logger           *slog.Logger
}

// Option configures a Client.
type Option func(*Config)

// WithToken sets the bearer token sent on connect.
func WithToken(token string) Option {
	return func(c *Config) { c.Token = token }
}

// WithIdentity sets the identity the agent publishes as.
func WithIdentity(id string) Option {
	return func(c *Config) { c.Identity = id }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithEventBuffer sets the inbound event queue size.
func WithEventBuffer(n int) Option {
	return func(c *Config) { c.EventBuffer = n }
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Identity:         "hearth",
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		EventBuffer:      256,
		Logger:           slog.Default(),
	}
}

// Client is a connection to one room.
type Client struct {
	name   string
	config Config
	logger *slog.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

// Dial connects to the room named name at rawURL.
func Dial(ctx context.Context, rawURL, name string, opts ...Option) (*Client, error) {
	if rawURL == "" {
		return nil, ErrNoURL
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("room: parse url: %w", err)
	}
	q := u.Query()
	if name != "" {
		q.Set("room", name)
	}
	q.Set("identity", cfg.Identity)
	u.RawQuery = q.Encode()

	headers := http.Header{}
	if cfg.Token != "" {
		headers.Set("Authorization", "Bearer "+cfg.Token)
	}

	dialer := websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("room: dial failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("room: dial: %w", err)
	}

	c := &Client{
		name:   name,
		config: cfg,
		logger: cfg.Logger.With("component", "room", "room", name),
		conn:   conn,
		events: make(chan Event, cfg.EventBuffer),
		done:   make(chan struct{}),
	}
	go c.readLoop()

	c.logger.Info("joined room", "url", u.Host)
	return c, nil
}

// Name returns the room name.
func (c *Client) Name() string { return c.name }

// Identity returns the identity this client publishes as.
func (c *Client) Identity() string { return c.config.Identity }

// Events returns inbound events. The channel closes when the room does.
func (c *Client) Events() <-chan Event { return c.events }

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns why the connection ended, or nil after a clean close.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// PublishAudio sends PCM16 audio to the room.
func (c *Client) PublishAudio(ctx context.Context, pcm []byte) error {
	return c.write(ctx, websocket.BinaryMessage, pcm)
}

// PublishTranscript sends a transcript line to the room.
func (c *Client) PublishTranscript(ctx context.Context, role, text string, final bool) error {
	data, err := json.Marshal(wireMessage{
		Type:     "transcript",
		Identity: c.config.Identity,
		Role:     role,
		Text:     text,
		Final:    final,
	})
	if err != nil {
		return err
	}
	return c.write(ctx, websocket.TextMessage, data)
}

func (c *Client) write(ctx context.Context, kind int, data []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	deadline := time.Now().Add(c.config.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if err := c.conn.WriteMessage(kind, data); err != nil {
		return fmt.Errorf("room: write: %w", err)
	}
	return nil
}

// Close leaves the room.
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	c.writeMu.Unlock()
	c.shutdown(nil)
	return nil
}

func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		c.conn.Close()
		close(c.done)
		if err != nil {
			c.logger.Warn("room connection lost", "error", err)
		} else {
			c.logger.Info("left room")
		}
	})
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.shutdown(nil)
			} else {
				select {
				case <-c.done:
				default:
					c.shutdown(err)
				}
			}
			return
		}

		ev, ok := c.decode(kind, data)
		if !ok {
			continue
		}
		select {
		case c.events <- ev:
		case <-c.done:
			return
		default:
			c.logger.Warn("event queue full, dropping", "kind", ev.Kind)
		}
	}
}

func (c *Client) decode(kind int, data []byte) (Event, bool) {
	if kind == websocket.BinaryMessage {
		return Event{Kind: EventAudio, Audio: data}, true
	}

	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Debug("ignoring malformed event", "error", err)
		return Event{}, false
	}
	switch EventKind(msg.Type) {
	case EventText, EventParticipantJoined, EventParticipantLeft:
		return Event{Kind: EventKind(msg.Type), Identity: msg.Identity, Text: msg.Text}, true
	default:
		return Event{}, false
	}
}
