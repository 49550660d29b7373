package hub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeConn struct {
	mu     sync.Mutex
	texts  []string
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (c *fakeConn) SetReadLimit(int64)                {}
func (c *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetPongHandler(func(string) error) {}
func (c *fakeConn) Close() error                      { c.once.Do(func() { close(c.closed) }); return nil }
func (c *fakeConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, errors.New("closed")
}
func (c *fakeConn) WriteMessage(t int, data []byte) error {
	select {
	case <-c.closed:
		return errors.New("closed")
	default:
	}
	if t == websocket.TextMessage {
		c.mu.Lock()
		c.texts = append(c.texts, string(data))
		c.mu.Unlock()
	}
	return nil
}

func (c *fakeConn) received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.texts...)
}

func TestBroadcast(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := New("events", nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	a, b := newFakeConn(), newFakeConn()
	served := make(chan struct{}, 2)
	for _, c := range []*fakeConn{a, b} {
		go func() {
			h.Serve(c)
			served <- struct{}{}
		}()
	}
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, time.Millisecond)

	require.NoError(t, h.BroadcastJSON(map[string]string{"type": "job"}))
	for _, c := range []*fakeConn{a, b} {
		require.Eventually(t, func() bool { return len(c.received()) == 1 }, time.Second, time.Millisecond)
		assert.JSONEq(t, `{"type":"job"}`, c.received()[0])
	}

	a.Close()
	<-served
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)

	cancel()
	<-served
	<-h.Done()
	assert.Zero(t, h.ClientCount())
}

func TestServeAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := New("events", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.Run(ctx)

	c := newFakeConn()
	h.Serve(c)
	select {
	case <-c.closed:
	default:
		t.Fatal("connection left open")
	}
}

func TestBroadcastNeverBlocks(t *testing.T) {
	h := New("events", nil)
	for i := 0; i < 300; i++ {
		h.Broadcast([]byte(`{}`))
	}
	assert.Error(t, h.BroadcastJSON(func() {}))
}

// pooledConn counts calls made after Serve handed it back, as a pooled
// server connection would be recycled at that point.
type pooledConn struct {
	*fakeConn
	released atomic.Bool
	late     atomic.Int32
}

func (c *pooledConn) WriteMessage(t int, data []byte) error {
	if c.released.Load() {
		c.late.Add(1)
	}
	return c.fakeConn.WriteMessage(t, data)
}

func (c *pooledConn) Close() error {
	if c.released.Load() {
		c.late.Add(1)
	}
	return c.fakeConn.Close()
}

func TestServeOutlivesItsPumps(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := New("events", nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	stop := make(chan struct{})
	var feeding sync.WaitGroup
	feeding.Add(1)
	go func() {
		defer feeding.Done()
		for {
			select {
			case <-stop:
				return
			default:
				h.Broadcast([]byte(`{"type":"job_started"}`))
				time.Sleep(100 * time.Microsecond)
			}
		}
	}()

	conns := make([]*pooledConn, 200)
	var served sync.WaitGroup
	for i := range conns {
		c := &pooledConn{fakeConn: newFakeConn()}
		conns[i] = c
		served.Add(1)
		go func() {
			defer served.Done()
			h.Serve(c)
			c.released.Store(true)
		}()
		if i%2 == 0 {
			time.Sleep(50 * time.Microsecond)
		}
		c.fakeConn.Close()
	}
	served.Wait()
	close(stop)
	feeding.Wait()

	assert.Never(t, func() bool {
		for _, c := range conns {
			if c.late.Load() > 0 {
				return true
			}
		}
		return false
	}, 50*time.Millisecond, 5*time.Millisecond)
	assert.Zero(t, h.ClientCount())

	cancel()
	<-h.Done()
}
