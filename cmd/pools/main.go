// Package main is the entry point for the perpetual pools browser.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fd1az/perpetual-pools/business/pools"
	"github.com/fd1az/perpetual-pools/business/pricing"
	"github.com/fd1az/perpetual-pools/internal/apm"
	"github.com/fd1az/perpetual-pools/internal/config"
	"github.com/fd1az/perpetual-pools/internal/logger"
	"github.com/fd1az/perpetual-pools/internal/metrics"
	"github.com/fd1az/perpetual-pools/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pools",
		Short:        "Browse perpetual pools by market, leverage and TVL",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newBrowseCmd(), newServeCmd(), newSnapshotCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "perpetual-pools %s (commit: %s, built: %s)\n", version, commit, buildDate)
		},
	}
}

// application is the monolith surface main drives.
type application interface {
	monolith.Monolith
	RegisterModules(modules ...monolith.Module) error
	StartModules(ctx context.Context, modules ...monolith.Module) error
	Close() error
}

// runtime is the shared process setup every command starts from.
type runtime struct {
	cfg     *config.Config
	log     *logger.Logger
	mono    application
	metrics *metrics.Provider
	tracer  apm.TraceProvider
}

// bootstrap loads config, sets up logging and telemetry, then registers and
// starts the modules. quiet discards logs (TUI owns the terminal).
func bootstrap(ctx context.Context, cmd *cobra.Command, quiet bool) (*runtime, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	// Sources fetch holdings for browse.account, so the flag must reach them.
	if f := cmd.Flags().Lookup("account"); f != nil && f.Changed {
		cfg.Browse.Account = f.Value.String()
	}

	level := cfg.App.LogLevel
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		level = v
	}

	var out io.Writer = os.Stderr
	if quiet {
		out = io.Discard
	}
	log := logger.New(out, logger.ParseLevel(level), cfg.App.Name, nil)
	log.Info(ctx, "starting perpetual pools",
		"version", version,
		"environment", cfg.App.Environment,
		"command", cmd.Name(),
	)

	rt := &runtime{cfg: cfg, log: log}

	exporter := apm.NoopExporter
	if cfg.Telemetry.Enabled {
		exporter = apm.Exporter(cfg.Telemetry.Exporter)
	}
	rt.tracer, err = apm.NewTraceProvider(ctx, log, apm.Options{
		ServiceName: cfg.Telemetry.ServiceName,
		Exporter:    exporter,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Headers:     cfg.Telemetry.OTLPHeaders,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}

	metricsCfg := metrics.Config{ServiceName: cfg.Telemetry.ServiceName, Prometheus: true}
	if cfg.Telemetry.Enabled && cfg.Telemetry.Exporter == string(apm.OTLPGRPCExporter) {
		metricsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
		metricsCfg.OTLPHeaders = apm.ParseHeaders(cfg.Telemetry.OTLPHeaders)
	}
	rt.metrics, err = metrics.NewMetricProvider(ctx, metricsCfg)
	if err != nil {
		rt.close(ctx)
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	rt.mono = monolith.New(cfg, log, version)

	// Define modules in dependency order
	modules := []monolith.Module{
		&pricing.Module{}, // spot prices for market banners
		&pools.Module{},   // depends on pricing
	}
	if err := rt.mono.RegisterModules(modules...); err != nil {
		rt.close(ctx)
		return nil, fmt.Errorf("failed to register modules: %w", err)
	}
	if err := rt.mono.StartModules(ctx, modules...); err != nil {
		rt.close(ctx)
		return nil, fmt.Errorf("failed to start modules: %w", err)
	}
	return rt, nil
}

func (rt *runtime) close(ctx context.Context) {
	if rt.mono != nil {
		if err := rt.mono.Close(); err != nil {
			rt.log.Warn(ctx, "error closing modules", "error", err)
		}
	}
	if rt.metrics != nil {
		if err := rt.metrics.Shutdown(context.Background()); err != nil {
			rt.log.Warn(ctx, "error stopping metrics", "error", err)
		}
	}
	if rt.tracer != nil {
		if err := rt.tracer.Stop(); err != nil {
			rt.log.Warn(ctx, "error stopping tracer", "error", err)
		}
	}
	_ = rt.log.Sync()
}
