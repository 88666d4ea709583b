package file

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/schemagate/internal/logging"
	"github.com/aretw0/schemagate/pkg/schema"
	"github.com/fsnotify/fsnotify"
)

// Extensions lists the document formats the loader recognises, in lookup order.
var Extensions = []string{".json", ".yaml", ".yml"}

// Loader implements ports.SchemaLoader over a directory of schema documents.
// The identifier of "person.json" is "person".
type Loader struct {
	BasePath string
	logger   *slog.Logger
}

// Option configures the Loader.
type Option func(*Loader)

// WithLogger configures a logger for watcher diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a Loader reading from basePath.
func New(basePath string, opts ...Option) *Loader {
	l := &Loader{
		BasePath: basePath,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// GetSchema reads the document for id. Exactly one of id.json, id.yaml and
// id.yml may exist.
func (l *Loader) GetSchema(id string) ([]byte, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	var found []string
	for _, ext := range Extensions {
		path := filepath.Join(l.BasePath, id+ext)
		if _, err := os.Stat(path); err == nil {
			found = append(found, path)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", schema.ErrSchemaNotFound, id)
	case 1:
		return readFile(found[0])
	default:
		return nil, fmt.Errorf("collision detected: schema '%s' is defined in %s", id, strings.Join(found, " and "))
	}
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", schema.ErrSchemaNotFound, path)
		}
		return nil, fmt.Errorf("failed to open schema file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return data, nil
}

// ListSchemas returns the identifiers of all schema documents in the directory.
func (l *Loader) ListSchemas() ([]string, error) {
	entries, err := os.ReadDir(l.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := idFromName(entry.Name())
		if !ok {
			continue
		}
		if existing, dup := seen[id]; dup {
			return nil, fmt.Errorf("collision detected: schema '%s' is defined in both '%s' and '%s'", id, existing, entry.Name())
		}
		seen[id] = entry.Name()
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Watch implements ports.Watchable using filesystem notifications.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(l.BasePath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", l.BasePath, err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) &&
					!evt.Has(fsnotify.Remove) && !evt.Has(fsnotify.Rename) {
					continue
				}
				id, ok := idFromName(filepath.Base(evt.Name))
				if !ok {
					continue
				}
				select {
				case ch <- id:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Warn("schema watcher error", "dir", l.BasePath, "err", err)
			}
		}
	}()

	return ch, nil
}

// idFromName matches extensions exactly, as GetSchema does, so every listed
// identifier can be opened on case-sensitive filesystems.
func idFromName(name string) (string, bool) {
	ext := filepath.Ext(name)
	for _, known := range Extensions {
		if ext == known {
			return strings.TrimSuffix(name, filepath.Ext(name)), true
		}
	}
	return "", false
}

// checkID keeps identifiers inside the base directory.
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: invalid schema identifier %q", schema.ErrSchemaNotFound, id)
	}
	return nil
}
