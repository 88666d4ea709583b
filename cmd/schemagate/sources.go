package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/loam"
	"github.com/aretw0/schemagate/internal/config"
	"github.com/aretw0/schemagate/pkg/adapters/file"
	"github.com/aretw0/schemagate/pkg/adapters/middleware"
	loamAdapter "github.com/aretw0/schemagate/pkg/adapters/loam"
	"github.com/aretw0/schemagate/pkg/adapters/redis"
	"github.com/aretw0/schemagate/pkg/ports"
	"github.com/aretw0/schemagate/pkg/registry"
)

type dirOptions struct {
	Path string `mapstructure:"path"`
}

type redisOptions struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type loamOptions struct {
	Path string `mapstructure:"path"`
}

type layeredOptions struct {
	Layers []config.Source `mapstructure:"layers"`
}

// newSourceRegistry registers the built-in schema sources.
func newSourceRegistry(logger *slog.Logger) *registry.Registry {
	r := registry.NewRegistry()

	r.Register("dir", func(options map[string]any) (ports.SchemaLoader, error) {
		opts := dirOptions{Path: "schemas"}
		if err := config.Decode(options, &opts); err != nil {
			return nil, err
		}
		return file.New(opts.Path, file.WithLogger(logger)), nil
	})

	r.Register("redis", func(options map[string]any) (ports.SchemaLoader, error) {
		opts := redisOptions{Addr: "localhost:6379"}
		if err := config.Decode(options, &opts); err != nil {
			return nil, err
		}
		var ro []redis.Option
		if opts.Prefix != "" {
			ro = append(ro, redis.WithPrefix(opts.Prefix))
		}
		if opts.Timeout > 0 {
			ro = append(ro, redis.WithTimeout(opts.Timeout))
		}
		return redis.New(opts.Addr, opts.Password, opts.DB, ro...), nil
	})

	r.Register("loam", func(options map[string]any) (ports.SchemaLoader, error) {
		opts := loamOptions{Path: "."}
		if err := config.Decode(options, &opts); err != nil {
			return nil, err
		}
		absPath, err := filepath.Abs(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		// Strict mode keeps numbers as json.Number; read-only keeps loam out of its sandbox.
		repo, err := loam.Init(absPath,
			loam.WithStrict(true),
			loam.WithReadOnly(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize loam: %w", err)
		}
		return loamAdapter.New(loam.NewTypedRepository[loamAdapter.SchemaMetadata](repo)), nil
	})

	// Layers are opened through the same registry, so any kind may be stacked.
	r.Register("layered", func(options map[string]any) (ports.SchemaLoader, error) {
		var opts layeredOptions
		if err := config.Decode(options, &opts); err != nil {
			return nil, err
		}
		if len(opts.Layers) == 0 {
			return nil, fmt.Errorf("at least one layer is required")
		}
		loaders := make([]ports.SchemaLoader, 0, len(opts.Layers))
		for i, layer := range opts.Layers {
			if layer.Kind == "" {
				layer.Kind = "dir"
			}
			l, err := r.Open(layer.Kind, layer.Options)
			if err != nil {
				return nil, fmt.Errorf("layer %d: %w", i, err)
			}
			loaders = append(loaders, middleware.Chain(l, middleware.NewLoggingMiddleware(logger, layer.Kind)))
		}
		return middleware.NewLayered(loaders...), nil
	})

	return r
}
