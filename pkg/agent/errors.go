package agent

import "errors"

// Sentinel errors for the agent package.
var (
	// ErrNotRegistered is returned when resolving a pattern with no host.
	ErrNotRegistered = errors.New("agent: pattern not registered")

	// ErrDuplicatePattern is returned when a pattern is registered twice.
	ErrDuplicatePattern = errors.New("agent: pattern already registered")

	// ErrUnknownFunction is returned when calling a tool that does not exist.
	ErrUnknownFunction = errors.New("agent: unknown function")

	// ErrDuplicateFunction is returned when adding a tool name twice.
	ErrDuplicateFunction = errors.New("agent: function already defined")

	// ErrInterrupted resolves speech that was cut off by the user.
	ErrInterrupted = errors.New("agent: speech interrupted")

	// ErrNotStarted is returned by hosts used before starting.
	ErrNotStarted = errors.New("agent: host not started")

	// ErrAlreadyStarted is returned when starting a host twice.
	ErrAlreadyStarted = errors.New("agent: host already started")

	// ErrNoRoom is returned when a host needs a room and has none.
	ErrNoRoom = errors.New("agent: no room")
)
