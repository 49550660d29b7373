package agent

import (
	"time"

	"github.com/google/uuid"
)

// JobContext is handed to the entrypoint once per dispatched job.
type JobContext struct {
	ID       string
	Room     Room
	Metadata map[string]string
	Started  time.Time
}

// NewJobContext creates a job bound to r.
func NewJobContext(r Room) *JobContext {
	return &JobContext{
		ID:       "job_" + uuid.NewString(),
		Room:     r,
		Metadata: make(map[string]string),
		Started:  time.Now(),
	}
}

// RoomName returns the room's name, or "" when there is no room.
func (j *JobContext) RoomName() string {
	if j == nil || j.Room == nil {
		return ""
	}
	return j.Room.Name()
}
