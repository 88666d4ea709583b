package schemagate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/schemagate/internal/logging"
	"github.com/aretw0/schemagate/pkg/adapters/file"
	"github.com/aretw0/schemagate/pkg/cache"
	"github.com/aretw0/schemagate/pkg/metrics"
	"github.com/aretw0/schemagate/pkg/ports"
	"github.com/aretw0/schemagate/pkg/schema"
)

// ErrWatchUnsupported is returned by Watch when the loader cannot report changes.
var ErrWatchUnsupported = errors.New("current loader does not support watching")

// Gate is the high-level entry point of the library.
// It ties a SchemaLoader to a validator cache and validates records against
// schemas by identifier. A Gate is safe for concurrent use.
type Gate struct {
	loader      ports.SchemaLoader
	cache       *cache.Cache
	compileOpts []schema.CompileOption
	metrics     *metrics.Metrics
	logger      *slog.Logger
	Name        string
}

// Option defines a functional option for configuring the Gate.
type Option func(*Gate)

// WithLoader injects a custom SchemaLoader, bypassing the default directory loader.
func WithLoader(l ports.SchemaLoader) Option {
	return func(g *Gate) {
		g.loader = l
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

// WithCompileOptions forwards options to every schema compilation.
func WithCompileOptions(opts ...schema.CompileOption) Option {
	return func(g *Gate) {
		g.compileOpts = append(g.compileOpts, opts...)
	}
}

// WithMetrics records cache and validation activity in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

// New initializes a Gate.
// By default it reads schema documents from dir. If WithLoader is provided,
// dir may be empty and is only used as a descriptive name.
func New(dir string, opts ...Option) (*Gate, error) {
	g := &Gate{}
	for _, opt := range opts {
		opt(g)
	}

	if g.logger == nil {
		g.logger = logging.NewNop()
	}

	if g.loader == nil {
		if dir == "" {
			return nil, fmt.Errorf("schema directory is required when no custom loader is provided")
		}
		absPath, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		g.Name = filepath.Base(absPath)
		g.loader = file.New(absPath, file.WithLogger(g.logger))
	} else if dir != "" {
		g.Name = filepath.Base(dir)
	}

	if g.Name != "" {
		g.logger = g.logger.With("source", g.Name)
	}

	cacheOpts := []cache.Option{
		cache.WithCompileOptions(g.compileOpts...),
		cache.WithLogger(g.logger),
	}
	if g.metrics != nil {
		cacheOpts = append(cacheOpts, cache.WithObserver(g.metrics))
	}
	g.cache = cache.New(g.loader, cacheOpts...)

	return g, nil
}

// Validate checks record against the schema id and returns the normalized record.
// Invalid records yield an error matching schema.ErrValidation; schema.Causes
// extracts the individual field failures.
func (g *Gate) Validate(ctx context.Context, id string, record map[string]any) (*schema.Record, error) {
	start := time.Now()

	rec, err := g.validate(ctx, id, record)

	if g.metrics != nil {
		g.metrics.ObserveValidation(time.Since(start), err)
	}

	switch {
	case err == nil:
		g.logger.Debug("record valid", "schema", id)
	case errors.Is(err, schema.ErrValidation):
		g.logger.Debug("record invalid", "schema", id, "causes", len(schema.Causes(err)))
	default:
		g.logger.Warn("validation aborted", "schema", id, "error", err)
	}
	return rec, err
}

func (g *Gate) validate(ctx context.Context, id string, record map[string]any) (*schema.Record, error) {
	v, err := g.cache.GetOrCompile(ctx, id)
	if err != nil {
		return nil, err
	}
	return schema.Validate(v, record)
}

// Compile returns the cached validator for id, compiling it on first use.
func (g *Gate) Compile(ctx context.Context, id string) (*schema.Validator, error) {
	v, err := g.cache.GetOrCompile(ctx, id)
	if err != nil {
		g.logger.Warn("schema compilation failed", "schema", id, "error", err)
		return nil, err
	}
	return v, nil
}

// Describe returns the introspection summary of schema id.
func (g *Gate) Describe(ctx context.Context, id string) (*schema.Summary, error) {
	v, err := g.Compile(ctx, id)
	if err != nil {
		return nil, err
	}
	return schema.Summarize(id, v), nil
}

// Invalidate drops the cached validator for id. The next use recompiles it.
func (g *Gate) Invalidate(id string) {
	g.cache.Invalidate(id)
	g.logger.Info("validator invalidated", "schema", id)
}

// List returns the identifiers the loader knows about.
func (g *Gate) List() ([]string, error) {
	return g.loader.ListSchemas()
}

// Watch evicts cached validators whenever the loader reports a change,
// until ctx is done.
func (g *Gate) Watch(ctx context.Context) error {
	w, ok := g.loader.(ports.Watchable)
	if !ok {
		return ErrWatchUnsupported
	}
	return g.cache.WatchInvalidate(ctx, w)
}

// Loader returns the underlying SchemaLoader.
func (g *Gate) Loader() ports.SchemaLoader {
	return g.loader
}

// Cache returns the validator cache.
func (g *Gate) Cache() *cache.Cache {
	return g.cache
}
