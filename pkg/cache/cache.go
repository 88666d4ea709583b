// Package cache memoises compiled validators by schema identifier.
//
// Hits are served from a sync.Map without locking. Concurrent misses for the
// same identifier are coalesced so the loader and compiler run once.
// Failures are returned to every waiter and never stored.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/schemagate/internal/logging"
	"github.com/aretw0/schemagate/pkg/ports"
	"github.com/aretw0/schemagate/pkg/schema"
	"golang.org/x/sync/singleflight"
)

// Observer receives cache events. Implementations must be safe for concurrent use.
type Observer interface {
	CacheHit(id string)
	CacheMiss(id string)
	Compiled(id string, err error)
}

// Cache maps schema identifiers to compiled validators.
type Cache struct {
	loader ports.SchemaLoader
	opts   []schema.CompileOption

	entries sync.Map // id -> *schema.Validator
	group   singleflight.Group

	mu    sync.Mutex
	epoch uint64            // bumped by Clear
	gens  map[string]uint64 // bumped by Invalidate

	observer Observer
	logger   *slog.Logger
}

// Option configures the Cache.
type Option func(*Cache)

// WithCompileOptions forwards options to every compilation.
func WithCompileOptions(opts ...schema.CompileOption) Option {
	return func(c *Cache) {
		c.opts = append(c.opts, opts...)
	}
}

// WithObserver registers an event sink, typically the Prometheus collectors.
func WithObserver(o Observer) Option {
	return func(c *Cache) {
		c.observer = o
	}
}

// WithLogger configures a logger for invalidation events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// New creates an empty cache reading schema documents from loader.
func New(loader ports.SchemaLoader, opts ...Option) *Cache {
	c := &Cache{
		loader:   loader,
		gens:     make(map[string]uint64),
		observer: nopObserver{},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type token struct {
	epoch uint64
	gen   uint64
}

func (c *Cache) current(id string) token {
	c.mu.Lock()
	defer c.mu.Unlock()
	return token{epoch: c.epoch, gen: c.gens[id]}
}

// GetOrCompile returns the validator for id, compiling it on first use.
// Waiting for an in-flight compilation honours ctx; the compilation itself
// keeps running for the other waiters.
func (c *Cache) GetOrCompile(ctx context.Context, id string) (*schema.Validator, error) {
	if v, ok := c.entries.Load(id); ok {
		c.observer.CacheHit(id)
		return v.(*schema.Validator), nil
	}
	c.observer.CacheMiss(id)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tok := c.current(id)
	key := fmt.Sprintf("%d/%d/%s", tok.epoch, tok.gen, id)

	ch := c.group.DoChan(key, func() (any, error) {
		return c.compile(id, tok)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*schema.Validator), nil
	}
}

func (c *Cache) compile(id string, tok token) (*schema.Validator, error) {
	// A previous flight may have installed the entry after our Load missed.
	if v, ok := c.entries.Load(id); ok {
		return v.(*schema.Validator), nil
	}

	def, err := schema.Load(c.loader, id)
	if err != nil {
		c.observer.Compiled(id, err)
		return nil, err
	}

	v, err := schema.Compile(def, c.opts...)
	if err != nil {
		err = fmt.Errorf("schema %s: %w", id, err)
		c.observer.Compiled(id, err)
		return nil, err
	}
	c.observer.Compiled(id, nil)

	c.mu.Lock()
	if c.epoch == tok.epoch && c.gens[id] == tok.gen {
		c.entries.Store(id, v)
	}
	c.mu.Unlock()

	return v, nil
}

// Invalidate drops the validator for id. A compilation already in flight
// still answers its waiters but its result is not stored.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	c.gens[id]++
	c.entries.Delete(id)
	c.mu.Unlock()
}

// Clear drops every cached validator.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.epoch++
	c.gens = make(map[string]uint64)
	c.entries.Range(func(key, _ any) bool {
		c.entries.Delete(key)
		return true
	})
	c.mu.Unlock()
}

// Cached lists the identifiers currently holding a validator, sorted.
func (c *Cache) Cached() []string {
	var ids []string
	c.entries.Range(func(key, _ any) bool {
		ids = append(ids, key.(string))
		return true
	})
	sort.Strings(ids)
	return ids
}

// Peek returns the cached validator for id without compiling.
func (c *Cache) Peek(id string) (*schema.Validator, bool) {
	v, ok := c.entries.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*schema.Validator), true
}

// WatchInvalidate evicts entries whenever w reports a change, until ctx is
// done or the watch channel closes.
func (c *Cache) WatchInvalidate(ctx context.Context, w ports.Watchable) error {
	events, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch schema source: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case id, ok := <-events:
				if !ok {
					return
				}
				c.Invalidate(id)
				c.logger.Info("schema changed, validator evicted", "schema", id)
			}
		}
	}()
	return nil
}

type nopObserver struct{}

func (nopObserver) CacheHit(string)        {}
func (nopObserver) CacheMiss(string)       {}
func (nopObserver) Compiled(string, error) {}
