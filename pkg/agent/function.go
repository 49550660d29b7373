package agent

import (
	"context"
	"fmt"

	"github.com/teslashibe/go-hearth/pkg/speech"
	"github.com/teslashibe/go-hearth/pkg/tool"
)

// Method is one named callable of a FunctionContext (convention A).
type Method struct {
	Name        string
	Description string
	Params      []tool.Param
	Fn          func(ctx context.Context, args map[string]any) (string, error)
}

// Spec describes the method to a language model.
func (m Method) Spec() speech.ToolSpec {
	return speech.ToolSpec{
		Name:        m.Name,
		Description: m.Description,
		Parameters:  tool.Declaration{Params: m.Params}.Schema(),
	}
}

// FunctionContext is convention A: a stateful object exposing named methods
// with descriptions and per-parameter metadata. It is not safe for
// concurrent mutation; hosts build it once and then only call it.
type FunctionContext struct {
	methods map[string]Method
	order   []string
}

// NewFunctionContext creates an empty function context.
func NewFunctionContext() *FunctionContext {
	return &FunctionContext{methods: make(map[string]Method)}
}

// Add defines a method.
func (f *FunctionContext) Add(m Method) error {
	if _, exists := f.methods[m.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateFunction, m.Name)
	}
	f.methods[m.Name] = m
	f.order = append(f.order, m.Name)
	return nil
}

// Method returns the named method.
func (f *FunctionContext) Method(name string) (Method, bool) {
	m, ok := f.methods[name]
	return m, ok
}

// Methods returns all methods in definition order.
func (f *FunctionContext) Methods() []Method {
	out := make([]Method, 0, len(f.order))
	for _, name := range f.order {
		out = append(out, f.methods[name])
	}
	return out
}

// Call invokes the named method.
func (f *FunctionContext) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	m, ok := f.methods[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	return m.Fn(ctx, args)
}

// Specs describes every method to a language model.
func (f *FunctionContext) Specs() []speech.ToolSpec {
	methods := f.Methods()
	out := make([]speech.ToolSpec, len(methods))
	for i, m := range methods {
		out[i] = m.Spec()
	}
	return out
}

// FunctionTool is convention B: an independently invocable function taking
// an explicit leading RunContext.
type FunctionTool struct {
	Name        string
	Description string
	Params      []tool.Param

	// Async tools run on their own goroutine and are awaited.
	Async bool

	Fn func(rc *RunContext, args map[string]any) (string, error)
}

// Spec describes the tool to a language model.
func (t FunctionTool) Spec() speech.ToolSpec {
	return speech.ToolSpec{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  tool.Declaration{Params: t.Params}.Schema(),
	}
}

// Call invokes the tool with a fresh RunContext.
func (t FunctionTool) Call(ctx context.Context, callID string, args map[string]any) (string, error) {
	rc := NewRunContext(ctx, callID, t.Name)
	if !t.Async {
		return t.Fn(rc, args)
	}

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := t.Fn(rc, args)
		done <- result{out, err}
	}()
	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// FindTool returns the named tool from a list.
func FindTool(tools []FunctionTool, name string) (FunctionTool, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return FunctionTool{}, false
}

// RunContext is the invocation context convention B tools receive.
type RunContext struct {
	ctx      context.Context
	CallID   string
	Function string
}

// NewRunContext creates a run context for one tool call.
func NewRunContext(ctx context.Context, callID, function string) *RunContext {
	rc := &RunContext{CallID: callID, Function: function}
	rc.ctx = context.WithValue(ctx, runContextKey{}, rc)
	return rc
}

// Context returns the call's context. A nil RunContext yields Background.
func (rc *RunContext) Context() context.Context {
	if rc == nil || rc.ctx == nil {
		return context.Background()
	}
	return rc.ctx
}

type runContextKey struct{}

// RunContextFrom returns the RunContext carried by ctx, if any.
func RunContextFrom(ctx context.Context) (*RunContext, bool) {
	rc, ok := ctx.Value(runContextKey{}).(*RunContext)
	return rc, ok
}
