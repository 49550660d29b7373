package tool

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Registry holds declarations by name and remembers registration order.
type Registry struct {
	mu    sync.RWMutex
	decls map[string]Declaration
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{decls: make(map[string]Declaration)}
}

// Register validates and adds a declaration.
func (r *Registry) Register(d Declaration) error {
	if err := d.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.decls[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, d.Name)
	}
	r.decls[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// MustRegister registers a declaration and panics on error.
func (r *Registry) MustRegister(d Declaration) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Get returns the named declaration.
func (r *Registry) Get(name string) (Declaration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decls[name]
	return d, ok
}

// List returns all declarations in registration order.
func (r *Registry) List() []Declaration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Declaration, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.decls[name])
	}
	return out
}

// Names returns the registered names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of declarations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Invoke calls the named tool. Argument errors are tagged with the tool name.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	d, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	out, err := d.Invoke(ctx, args)
	var ae *ArgError
	if errors.As(err, &ae) && ae.Tool == "" {
		ae.Tool = name
	}
	return out, err
}

// Schemas returns OpenAI-style function definitions for every declaration.
func (r *Registry) Schemas() []map[string]any {
	decls := r.List()
	out := make([]map[string]any, 0, len(decls))
	for _, d := range decls {
		out = append(out, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        d.Name,
				"description": d.Description,
				"parameters":  d.Schema(),
			},
		})
	}
	return out
}
