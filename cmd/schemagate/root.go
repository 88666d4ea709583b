package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/schemagate"
	"github.com/aretw0/schemagate/internal/config"
	"github.com/aretw0/schemagate/internal/logging"
	"github.com/aretw0/schemagate/pkg/adapters/middleware"
	"github.com/aretw0/schemagate/pkg/metrics"
	"github.com/aretw0/schemagate/pkg/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "schemagate",
		Short: "Schemagate validates records against declarative field schemas",
		Long: `Schemagate compiles JSON/YAML field schemas into cached validators and checks
records against them from the command line, over HTTP or as an MCP server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().String("dir", "", "Directory of schema documents (overrides the configured source)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().Bool("lenient", false, "Resolve unknown type tokens to str instead of failing")

	rootCmd.AddCommand(
		newValidateCmd(),
		newCheckCmd(),
		newListCmd(),
		newDescribeCmd(),
		newServeCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds everything a command needs once flags and config are resolved.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	gate    *schemagate.Gate
	metrics *metrics.Metrics
	promReg *prometheus.Registry
}

// setup loads the configuration, applies flag overrides and builds the gate.
func setup(cmd *cobra.Command) (*app, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if dir, _ := flags.GetString("dir"); dir != "" {
		cfg.Source = config.Source{Kind: "dir", Options: map[string]any{"path": dir}}
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Log.Format, _ = flags.GetString("log-format")
	}
	if lenient, _ := flags.GetBool("lenient"); lenient {
		cfg.Compiler.LenientTypes = true
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	logger := logging.NewWithFormat(cmd.ErrOrStderr(), level, format)

	loader, err := newSourceRegistry(logger).Open(cfg.Source.Kind, cfg.Source.Options)
	if err != nil {
		return nil, err
	}

	loader = middleware.Chain(loader, middleware.NewLoggingMiddleware(logger, cfg.Source.Kind))

	a := &app{cfg: cfg, logger: logger}

	opts := []schemagate.Option{
		schemagate.WithLoader(loader),
		schemagate.WithLogger(logger),
	}
	if cfg.Compiler.LenientTypes {
		opts = append(opts, schemagate.WithCompileOptions(schema.WithLenientTypes()))
	}
	if cfg.Server.Metrics {
		a.promReg = prometheus.NewRegistry()
		a.promReg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m, err := metrics.New(a.promReg)
		if err != nil {
			return nil, err
		}
		a.metrics = m
		opts = append(opts, schemagate.WithMetrics(m))
	}

	gate, err := schemagate.New(sourceName(cfg.Source), opts...)
	if err != nil {
		return nil, err
	}
	a.gate = gate
	return a, nil
}

func sourceName(src config.Source) string {
	if p, ok := src.Options["path"].(string); ok && p != "" {
		return p
	}
	return src.Kind
}
