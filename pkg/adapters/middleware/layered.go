package middleware

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/aretw0/schemagate/pkg/ports"
	"github.com/aretw0/schemagate/pkg/schema"
)

// Layered resolves each identifier from the first layer that holds it.
// Earlier layers shadow later ones.
type Layered struct {
	layers []ports.SchemaLoader
}

// NewLayered creates a Layered loader. At least one layer is expected.
func NewLayered(layers ...ports.SchemaLoader) *Layered {
	return &Layered{layers: layers}
}

// WithFallback returns a Middleware that consults fallback when the wrapped
// loader does not hold a schema.
func WithFallback(fallback ports.SchemaLoader) Middleware {
	return func(next ports.SchemaLoader) ports.SchemaLoader {
		return NewLayered(next, fallback)
	}
}

// GetSchema implements ports.SchemaLoader. Only ErrSchemaNotFound moves on to
// the next layer; any other failure is returned as is.
func (l *Layered) GetSchema(id string) ([]byte, error) {
	for _, layer := range l.layers {
		data, err := layer.GetSchema(id)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, schema.ErrSchemaNotFound) {
			return nil, err
		}
	}
	return nil, schema.ErrSchemaNotFound
}

// ListSchemas returns the sorted union of every layer's identifiers.
func (l *Layered) ListSchemas() ([]string, error) {
	seen := make(map[string]struct{})
	for _, layer := range l.layers {
		ids, err := layer.ListSchemas()
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// Watch implements ports.Watchable by merging the events of every watchable
// layer. Layers without notifications are skipped.
func (l *Layered) Watch(ctx context.Context) (<-chan string, error) {
	var sources []<-chan string
	for _, layer := range l.layers {
		w, ok := layer.(ports.Watchable)
		if !ok {
			continue
		}
		ch, err := w.Watch(ctx)
		if err != nil {
			return nil, err
		}
		sources = append(sources, ch)
	}

	out := make(chan string)
	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(src <-chan string) {
			defer wg.Done()
			for id := range src {
				select {
				case out <- id:
				case <-ctx.Done():
					return
				}
			}
		}(src)
	}
	go func() {
		wg.Wait()
		<-ctx.Done()
		close(out)
	}()
	return out, nil
}
