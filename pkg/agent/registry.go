package agent

import (
	"fmt"
	"sync"
)

// Host is a constructed session host. Its capabilities are discovered by
// type-asserting the interfaces its Descriptor promises.
type Host any

// Factory constructs a host from the options its descriptor accepts.
type Factory func(opts Options) (Host, error)

// Entry is a registered pattern.
type Entry struct {
	Descriptor Descriptor
	Factory    Factory
}

// Registry maps patterns to host factories.
type Registry struct {
	mu      sync.RWMutex
	entries map[Pattern]Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Pattern]Entry)}
}

// DefaultRegistry holds the hosts registered from init by bundled
// implementations.
var DefaultRegistry = NewRegistry()

// Register adds a host for d.Pattern.
func (r *Registry) Register(d Descriptor, f Factory) error {
	if f == nil {
		return fmt.Errorf("agent: nil factory for %s", d.Pattern)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[d.Pattern]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePattern, d.Pattern)
	}
	r.entries[d.Pattern] = Entry{Descriptor: d, Factory: f}
	return nil
}

// MustRegister registers a host and panics on error.
func (r *Registry) MustRegister(d Descriptor, f Factory) {
	if err := r.Register(d, f); err != nil {
		panic(err)
	}
}

// Unregister removes the host for p.
func (r *Registry) Unregister(p Pattern) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, p)
}

// Resolve returns the host registered for p.
func (r *Registry) Resolve(p Pattern) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[p]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotRegistered, p)
	}
	return e, nil
}

// Patterns returns the registered patterns in priority order.
func (r *Registry) Patterns() []Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Pattern
	for _, p := range Patterns() {
		if _, ok := r.entries[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Register adds a host to DefaultRegistry.
// This is called by bundled implementations in init().
func Register(d Descriptor, f Factory) {
	DefaultRegistry.MustRegister(d, f)
}
