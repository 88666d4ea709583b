package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/schemagate/pkg/schema"
)

// Loader implements ports.SchemaLoader using an in-memory map.
// Safe for concurrent use. Set and Delete notify watchers.
type Loader struct {
	mu       sync.RWMutex
	schemas  map[string][]byte
	watchers []chan string
}

// NewLoader creates a new in-memory Loader with the provided raw documents.
func NewLoader(data map[string]string) *Loader {
	schemas := make(map[string][]byte, len(data))
	for k, v := range data {
		schemas[k] = []byte(v)
	}
	return &Loader{
		schemas: schemas,
	}
}

// NewFromDefinitions creates a Loader from parsed definitions.
// This handles serialization automatically, improving DX for tests.
func NewFromDefinitions(defs map[string]*schema.Definition) (*Loader, error) {
	data := make(map[string]string, len(defs))
	for id, def := range defs {
		if id == "" {
			return nil, fmt.Errorf("schema missing identifier")
		}
		raw, err := json.Marshal(def)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal schema %s: %w", id, err)
		}
		data[id] = string(raw)
	}
	return NewLoader(data), nil
}

// GetSchema retrieves the raw document of a schema.
func (l *Loader) GetSchema(id string) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	content, ok := l.schemas[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrSchemaNotFound, id)
	}
	out := make([]byte, len(content))
	copy(out, content)
	return out, nil
}

// ListSchemas returns all identifiers in sorted order.
func (l *Loader) ListSchemas() ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]string, 0, len(l.schemas))
	for k := range l.schemas {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}

// Set stores (or replaces) a schema document.
func (l *Loader) Set(id, content string) {
	l.mu.Lock()
	l.schemas[id] = []byte(content)
	l.mu.Unlock()
	l.notify(id)
}

// Delete removes a schema document.
func (l *Loader) Delete(id string) {
	l.mu.Lock()
	delete(l.schemas, id)
	l.mu.Unlock()
	l.notify(id)
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, 16)

	l.mu.Lock()
	l.watchers = append(l.watchers, ch)
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, w := range l.watchers {
			if w == ch {
				l.watchers = append(l.watchers[:i], l.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch, nil
}

func (l *Loader) notify(id string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, w := range l.watchers {
		select {
		case w <- id:
		default:
			// Slow watcher: drop rather than block writers.
		}
	}
}
