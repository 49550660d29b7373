// Package worker accepts job dispatches over HTTP and runs one session per
// room.
//
// Routes:
//
//	POST   /jobs        dispatch {"room_url","room","token"}
//	GET    /jobs        list jobs
//	GET    /jobs/:id    one job
//	DELETE /jobs/:id    cancel a job
//	GET    /tools       tool schemas
//	GET    /healthz     liveness
//	GET    /ws/events   job transitions as JSON over websocket
package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/teslashibe/go-hearth/pkg/agent"
	"github.com/teslashibe/go-hearth/pkg/hub"
)

// Server is the job dispatch server.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App
	events *hub.Hub

	// base parents every job context; stop cancels them all.
	base context.Context
	stop context.CancelFunc
	bg   conc.WaitGroup

	mu      sync.RWMutex
	jobs    map[string]*job
	order   []string
	closing bool
}

// New creates a server and starts its event hub.
func New(opts ...Option) (*Server, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "worker")

	base, stop := context.WithCancel(context.Background())
	s := &Server{
		config: cfg,
		logger: logger,
		events: hub.New("events", logger),
		base:   base,
		stop:   stop,
		jobs:   make(map[string]*job),
	}

	app := fiber.New(fiber.Config{
		AppName:               "hearth worker",
		DisableStartupMessage: true,
	})
	app.Get("/healthz", s.handleHealth)
	app.Get("/tools", s.handleTools)
	app.Post("/jobs", s.handleDispatch)
	app.Get("/jobs", s.handleListJobs)
	app.Get("/jobs/:id", s.handleGetJob)
	app.Delete("/jobs/:id", s.handleCancelJob)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(func(c *websocket.Conn) {
		s.events.Serve(c)
	}))
	s.app = app

	s.bg.Go(func() { s.events.Run(base) })
	return s, nil
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Start listens on the configured address. It blocks until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("worker listening", "addr", s.config.Addr)
	return s.app.Listen(s.config.Addr)
}

// Serve accepts connections on ln. It blocks until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("worker listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

// Shutdown stops accepting jobs, cancels running ones and waits for them to
// drain, then stops the HTTP server. The wait is bounded by ctx and by the
// configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}

	s.mu.Lock()
	s.closing = true
	running := 0
	for _, j := range s.jobs {
		if j.info.State == JobRunning {
			running++
		}
	}
	s.mu.Unlock()

	s.logger.Info("draining jobs", "running", running)
	s.stop()

	drained := make(chan struct{})
	go func() {
		s.bg.Wait()
		close(drained)
	}()

	var err error
	select {
	case <-drained:
	case <-ctx.Done():
		err = fmt.Errorf("worker: drain: %w", ctx.Err())
	}
	if serr := s.app.ShutdownWithContext(ctx); serr != nil && err == nil {
		err = serr
	}
	return err
}

// Dispatch joins the requested room and starts a job for it.
func (s *Server) Dispatch(ctx context.Context, req DispatchRequest) (JobInfo, error) {
	if req.RoomURL == "" {
		req.RoomURL = s.config.RoomURL
	}
	if strings.TrimSpace(req.Room) == "" {
		return JobInfo{}, ErrNoRoom
	}
	if req.RoomURL == "" {
		return JobInfo{}, ErrNoRoomURL
	}
	if s.isClosing() {
		return JobInfo{}, ErrShuttingDown
	}

	r, err := s.config.Dial(ctx, req)
	if err != nil {
		return JobInfo{}, fmt.Errorf("worker: dial %s: %w", req.Room, err)
	}
	return s.start(r)
}

// Run dispatches a job and blocks until it ends. Cancelling ctx cancels
// the job.
func (s *Server) Run(ctx context.Context, req DispatchRequest) (JobInfo, error) {
	info, err := s.Dispatch(ctx, req)
	if err != nil {
		return info, err
	}
	return s.Wait(ctx, info.ID)
}

// Wait blocks until the job ends. If ctx ends first the job is cancelled
// and Wait still returns its final state. A failed job returns the
// entrypoint's error unchanged.
func (s *Server) Wait(ctx context.Context, id string) (JobInfo, error) {
	j, ok := s.lookup(id)
	if !ok {
		return JobInfo{}, ErrJobNotFound
	}
	select {
	case <-j.done:
	case <-ctx.Done():
		j.cancel()
		<-j.done
	}
	info, _ := s.Job(id)
	return info, j.err
}

// Cancel stops a running job.
func (s *Server) Cancel(id string) (JobInfo, error) {
	j, ok := s.lookup(id)
	if !ok {
		return JobInfo{}, ErrJobNotFound
	}
	j.cancel()
	info, _ := s.Job(id)
	return info, nil
}

// Job returns one job's state.
func (s *Server) Job(id string) (JobInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return JobInfo{}, false
	}
	return j.info, true
}

// Jobs returns every job in dispatch order.
func (s *Server) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]JobInfo, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.jobs[id].info)
	}
	return out
}

func (s *Server) lookup(id string) (*job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	return j, ok
}

func (s *Server) isClosing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closing
}

func (s *Server) start(r agent.Room) (JobInfo, error) {
	jc := agent.NewJobContext(r)
	ctx, cancel := context.WithCancel(s.base)
	j := &job{
		info: JobInfo{
			ID:        jc.ID,
			Room:      r.Name(),
			State:     JobRunning,
			StartedAt: jc.Started,
		},
		ctx:    jc,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		cancel()
		closeRoom(r)
		return JobInfo{}, ErrShuttingDown
	}
	s.jobs[j.info.ID] = j
	s.order = append(s.order, j.info.ID)
	s.bg.Go(func() { s.run(ctx, j, r) })
	info := j.info
	s.mu.Unlock()

	s.logger.Info("job started", "job_id", info.ID, "room", info.Room)
	s.publish("job_started", info)
	return info, nil
}

// run drives one job. The job is cancelled when its room closes.
func (s *Server) run(ctx context.Context, j *job, r agent.Room) {
	defer close(j.done)
	defer j.cancel()

	watching := make(chan struct{})
	go func() {
		select {
		case <-r.Done():
			s.logger.Info("room closed", "job_id", j.info.ID)
			j.cancel()
		case <-watching:
		}
	}()

	var err error
	var pc panics.Catcher
	pc.Try(func() { err = s.config.Entrypoint(ctx, j.ctx) })
	if rec := pc.Recovered(); rec != nil {
		err = rec.AsError()
	}
	close(watching)
	closeRoom(r)

	now := time.Now()
	s.mu.Lock()
	j.info.EndedAt = &now
	j.err = err
	if err != nil {
		j.info.State = JobFailed
		j.info.Error = err.Error()
	} else {
		j.info.State = JobTerminated
	}
	info := j.info
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("job failed", "job_id", info.ID, "error", err)
	} else {
		s.logger.Info("job ended", "job_id", info.ID)
	}
	s.publish("job_ended", info)
}

func (s *Server) publish(kind string, info JobInfo) {
	if err := s.events.BroadcastJSON(Event{Type: kind, Job: info}); err != nil {
		s.logger.Warn("event encode failed", "error", err)
	}
}

func closeRoom(r agent.Room) {
	if c, ok := r.(io.Closer); ok {
		_ = c.Close()
	}
}
