package tool

import (
	"errors"
	"fmt"
)

// Sentinel errors for the tool package.
var (
	// ErrInvalidDeclaration is returned when a declaration fails validation.
	ErrInvalidDeclaration = errors.New("tool: invalid declaration")

	// ErrDuplicate is returned when a name is registered twice.
	ErrDuplicate = errors.New("tool: already registered")

	// ErrNotFound is returned when invoking an unknown tool.
	ErrNotFound = errors.New("tool: not found")

	// ErrArgMissing is returned when a declared parameter is absent.
	ErrArgMissing = errors.New("tool: missing argument")

	// ErrArgType is returned when an argument cannot be converted to the
	// declared type. It marks a caller contract violation and is surfaced
	// to the host rather than rendered as a reply.
	ErrArgType = errors.New("tool: argument type mismatch")
)

// ArgError describes a bad argument to a tool invocation.
type ArgError struct {
	Tool  string
	Param string
	Value any
	Err   error
}

// Error implements the error interface.
func (e *ArgError) Error() string {
	name := e.Param
	if e.Tool != "" {
		name = e.Tool + "." + e.Param
	}
	if e.Value != nil {
		return fmt.Sprintf("%v: %s (got %T %v)", e.Err, name, e.Value, e.Value)
	}
	return fmt.Sprintf("%v: %s", e.Err, name)
}

// Unwrap returns the underlying sentinel.
func (e *ArgError) Unwrap() error {
	return e.Err
}

// IsArgError reports whether err is an argument error.
func IsArgError(err error) bool {
	var ae *ArgError
	return errors.As(err, &ae)
}
