package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/teslashibe/go-hearth/pkg/agent"
)

// Sentinel errors.
var (
	// ErrNoPattern is wrapped by ExhaustedError when no pattern could run.
	ErrNoPattern = errors.New("session: no integration pattern available")

	// ErrMissingCapability is returned when a host lacks a capability its
	// descriptor declares.
	ErrMissingCapability = errors.New("session: host lacks declared capability")

	// ErrDisabled marks a pattern turned off by configuration.
	ErrDisabled = errors.New("session: pattern disabled")

	// ErrNoCatalog is returned when a catalog constructor returns nil.
	ErrNoCatalog = errors.New("session: catalog constructor returned nil")

	// ErrNilHost is returned when a factory returns no host.
	ErrNilHost = errors.New("session: factory returned nil host")

	// ErrAlreadyRun is returned when a bootstrapper is run twice.
	ErrAlreadyRun = errors.New("session: bootstrapper already run")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("session: invalid config")
)

// Stage names the step of a pattern attempt that failed.
type Stage string

const (
	StageResolve   Stage = "resolve"
	StageConstruct Stage = "construct"
	StageStart     Stage = "start"
)

// Attempt records why one pattern was skipped.
type Attempt struct {
	Pattern agent.Pattern
	Stage   Stage
	Err     error
}

func (a Attempt) String() string {
	return fmt.Sprintf("%s: %s: %v", a.Pattern, a.Stage, a.Err)
}

// ExhaustedError is returned when every pattern failed.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrNoPattern.Error()
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.String()
	}
	return ErrNoPattern.Error() + " (" + strings.Join(parts, "; ") + ")"
}

// Unwrap exposes ErrNoPattern and each attempt's cause.
func (e *ExhaustedError) Unwrap() []error {
	out := []error{ErrNoPattern}
	for _, a := range e.Attempts {
		if a.Err != nil {
			out = append(out, a.Err)
		}
	}
	return out
}

// IsExhausted reports whether err is an ExhaustedError.
func IsExhausted(err error) bool {
	var ee *ExhaustedError
	return errors.As(err, &ee)
}

// RunError is returned when a running host fails.
type RunError struct {
	Pattern agent.Pattern
	Err     error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("session: %s run: %v", e.Pattern, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

func missingCapability(p agent.Pattern, capability string) error {
	return fmt.Errorf("%w: %s does not implement %s", ErrMissingCapability, p, capability)
}
