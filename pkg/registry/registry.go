package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/schemagate/pkg/ports"
)

// Factory builds a SchemaLoader from the free-form options of a source
// configuration section.
type Factory func(options map[string]any) (ports.SchemaLoader, error)

// Registry maps source kinds ("dir", "redis", "loam") to loader factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory for kind.
// If a factory with the same kind exists, it is overwritten.
func (r *Registry) Register(kind string, fn Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = fn
}

// Open looks up the factory for kind and builds a loader with options.
func (r *Registry) Open(kind string, options map[string]any) (ports.SchemaLoader, error) {
	r.mu.RLock()
	fn, ok := r.factories[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown source kind %q (available: %v)", kind, r.Kinds())
	}

	loader, err := fn(options)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", kind, err)
	}
	return loader, nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
