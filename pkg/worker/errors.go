package worker

import "errors"

// Sentinel errors.
var (
	ErrNoEntrypoint = errors.New("worker: entrypoint required")
	ErrNoRoom       = errors.New("worker: room name required")
	ErrNoRoomURL    = errors.New("worker: room URL required")
	ErrJobNotFound  = errors.New("worker: job not found")
	ErrShuttingDown = errors.New("worker: shutting down")
)
