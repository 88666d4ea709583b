package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/schemagate/pkg/schema"
)

// Loader adapts a Loam repository to the SchemaLoader interface.
// Each document carries its schema in the "fields" frontmatter list.
type Loader struct {
	Repo *loam.TypedRepository[SchemaMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[SchemaMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// GetSchema retrieves a document and renders its fields as a schema document.
func (l *Loader) GetSchema(id string) ([]byte, error) {
	ctx := context.Background()

	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		if !l.exists(id) {
			return nil, fmt.Errorf("%w: %s", schema.ErrSchemaNotFound, id)
		}
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	def, err := toDefinition(doc.Data)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", id, err)
	}

	data, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema %s: %w", id, err)
	}
	return data, nil
}

func toDefinition(meta SchemaMetadata) (*schema.Definition, error) {
	specs := make([]schema.FieldSpec, 0, len(meta.Fields))
	for _, f := range meta.Fields {
		specs = append(specs, schema.FieldSpec{
			Name:       f.Name,
			Type:       f.Type,
			Required:   f.Required,
			Min:        f.Min,
			Max:        f.Max,
			Default:    f.Default,
			HasDefault: f.Default != nil,
		})
	}
	return schema.NewDefinition(specs...)
}

// exists reports whether id is one of the listed documents. A failing
// listing counts as present so that the original Get error is surfaced.
func (l *Loader) exists(id string) bool {
	ids, err := l.ListSchemas()
	if err != nil {
		return true
	}
	want := trimExtension(id)
	for _, known := range ids {
		if known == want {
			return true
		}
	}
	return false
}

// ListSchemas lists all schema documents in the repository.
func (l *Loader) ListSchemas() ([]string, error) {
	ctx := context.Background()
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))

	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	return ids, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
