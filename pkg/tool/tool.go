// Package tool declares invocable actions independently of the calling
// convention a session host will eventually demand.
//
// A Declaration carries a name, a description, an ordered parameter list and
// a handler. Declarations are built with Define and collected in a Registry:
//
//	reg := tool.NewRegistry()
//	reg.MustRegister(tool.Define("get_temperature", "Get the temperature in a specific room").
//	    String("zone", "The specific zone").
//	    Handle(func(ctx context.Context, args tool.Args) (string, error) {
//	        zone, err := args.String("zone")
//	        ...
//	    }))
//
// Adapting declarations into a host's convention is left to the caller.
package tool

import (
	"context"
	"fmt"
	"regexp"
)

// ParamType is the JSON Schema type of a parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
)

// Param describes one typed parameter of a tool.
type Param struct {
	Name        string
	Type        ParamType
	Description string

	// Enum restricts string parameters to a fixed set. Optional.
	Enum []string
}

// Handler executes a tool. The returned string is what the model hears.
type Handler func(ctx context.Context, args Args) (string, error)

// Declaration is an immutable description of one invocable action.
type Declaration struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler

	// Async marks handlers that hosts should run off the calling goroutine
	// and await.
	Async bool
}

var namePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,63}$`)

// Validate checks the declaration is well formed.
func (d Declaration) Validate() error {
	if !namePattern.MatchString(d.Name) {
		return fmt.Errorf("%w: bad name %q", ErrInvalidDeclaration, d.Name)
	}
	if d.Description == "" {
		return fmt.Errorf("%w: %s has no description", ErrInvalidDeclaration, d.Name)
	}
	if d.Handler == nil {
		return fmt.Errorf("%w: %s has no handler", ErrInvalidDeclaration, d.Name)
	}
	seen := make(map[string]bool, len(d.Params))
	for _, p := range d.Params {
		if !namePattern.MatchString(p.Name) {
			return fmt.Errorf("%w: %s has bad parameter name %q", ErrInvalidDeclaration, d.Name, p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: %s declares %q twice", ErrInvalidDeclaration, d.Name, p.Name)
		}
		seen[p.Name] = true
		switch p.Type {
		case TypeString, TypeInteger:
		default:
			return fmt.Errorf("%w: %s.%s has unsupported type %q", ErrInvalidDeclaration, d.Name, p.Name, p.Type)
		}
	}
	return nil
}

// Param returns the named parameter.
func (d Declaration) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Invoke runs the handler after checking every declared parameter is present.
func (d Declaration) Invoke(ctx context.Context, args map[string]any) (string, error) {
	for _, p := range d.Params {
		if _, ok := args[p.Name]; !ok {
			return "", &ArgError{Tool: d.Name, Param: p.Name, Err: ErrArgMissing}
		}
	}
	return d.Handler(ctx, Args(args))
}

// Schema returns the JSON Schema object for the parameters, in the shape
// chat-completion APIs expect under "parameters".
func (d Declaration) Schema() map[string]any {
	props := make(map[string]any, len(d.Params))
	required := make([]string, 0, len(d.Params))
	for _, p := range d.Params {
		prop := map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = append([]string(nil), p.Enum...)
		}
		props[p.Name] = prop
		required = append(required, p.Name)
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// Builder assembles a Declaration.
type Builder struct {
	decl Declaration
}

// Define starts a declaration.
func Define(name, description string) *Builder {
	return &Builder{decl: Declaration{Name: name, Description: description}}
}

// String adds a string parameter.
func (b *Builder) String(name, description string, enum ...string) *Builder {
	b.decl.Params = append(b.decl.Params, Param{Name: name, Type: TypeString, Description: description, Enum: enum})
	return b
}

// Int adds an integer parameter.
func (b *Builder) Int(name, description string) *Builder {
	b.decl.Params = append(b.decl.Params, Param{Name: name, Type: TypeInteger, Description: description})
	return b
}

// Async marks the declaration as asynchronous.
func (b *Builder) Async() *Builder {
	b.decl.Async = true
	return b
}

// Handle sets the handler and returns the finished declaration.
func (b *Builder) Handle(h Handler) Declaration {
	d := b.decl
	d.Handler = h
	d.Params = append([]Param(nil), b.decl.Params...)
	return d
}
