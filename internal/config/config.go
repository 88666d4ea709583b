package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is looked up in the working directory when no --config is given.
const DefaultPath = "schemagate.yaml"

// Config is the runtime configuration of the schemagate binary.
type Config struct {
	Source   Source   `mapstructure:"source"`
	Server   Server   `mapstructure:"server"`
	Log      Log      `mapstructure:"log"`
	Compiler Compiler `mapstructure:"compiler"`
	Watch    bool     `mapstructure:"watch"`
}

// Source selects the schema loader. Options holds every other key of the
// section and is decoded by the loader factory registered for Kind.
// Kind defaults to "dir".
type Source struct {
	Kind    string         `mapstructure:"kind"`
	Options map[string]any `mapstructure:",remain"`
}

type Server struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	Metrics         bool          `mapstructure:"metrics"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Compiler struct {
	LenientTypes bool `mapstructure:"lenient_types"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Source: Source{
			Kind:    "dir",
			Options: map[string]any{"path": "schemas"},
		},
		Server: Server{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
			MaxBodyBytes:    1 << 20,
			Metrics:         true,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML or JSON file (chosen by extension) over the defaults.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	// A source section replaces the default source rather than merging into it.
	if _, ok := raw["source"]; ok {
		cfg.Source = Source{}
	}
	if err := Decode(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", filepath.Base(path), err)
	}
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = "dir"
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// Decode maps a generic document onto out, rejecting unknown keys and
// accepting durations written as strings ("5s").
func Decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// Validate checks values that cannot be expressed by types alone.
func (c Config) Validate() error {
	if c.Source.Kind == "" {
		return fmt.Errorf("source.kind is required")
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("server.max_body_bytes must not be negative")
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must not be negative")
	}
	return nil
}
