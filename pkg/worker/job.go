package worker

import (
	"context"
	"time"

	"github.com/teslashibe/go-hearth/pkg/agent"
)

// JobState is the lifecycle state of a dispatched job.
type JobState string

const (
	JobRunning    JobState = "running"
	JobTerminated JobState = "terminated"
	JobFailed     JobState = "failed"
)

// Entrypoint runs one job. It returns when the session ends or ctx is
// cancelled; a non-nil error marks the job failed.
type Entrypoint func(ctx context.Context, job *agent.JobContext) error

// DispatchRequest asks the worker to join a room.
type DispatchRequest struct {
	RoomURL string `json:"room_url"`
	Room    string `json:"room"`
	Token   string `json:"token,omitempty"`
}

// JobInfo is the externally visible state of a job.
type JobInfo struct {
	ID        string     `json:"id"`
	Room      string     `json:"room"`
	State     JobState   `json:"state"`
	Error     string     `json:"error,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Event is broadcast to /ws/events subscribers on every job transition.
type Event struct {
	Type string  `json:"type"`
	Job  JobInfo `json:"job"`
}

type job struct {
	info   JobInfo
	ctx    *agent.JobContext
	cancel context.CancelFunc
	done   chan struct{}

	// err is the entrypoint's error. It is set before done is closed.
	err error
}
