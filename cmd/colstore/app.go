package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/catalystcommunity/db-storage-poc/pkg/config"
	"github.com/catalystcommunity/db-storage-poc/pkg/logger"
	"github.com/catalystcommunity/db-storage-poc/pkg/metrics"
	"github.com/catalystcommunity/db-storage-poc/pkg/observability"
	"github.com/catalystcommunity/db-storage-poc/pkg/shard"
	"github.com/catalystcommunity/db-storage-poc/pkg/table"
)

// globalFlags are the persistent flags shared by every command. A flag only
// overrides the loaded configuration when set explicitly.
type globalFlags struct {
	configPath   string
	dataRoot     string
	maxShardSize int64
	logLevel     string
	mmap         bool
	metricsAddr  string
	trace        bool
}

func (f *globalFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "Path to YAML configuration file")
	pf.StringVar(&f.dataRoot, "data-root", "", "Directory holding one subdirectory per table")
	pf.Int64Var(&f.maxShardSize, "max-shard-size", config.DefaultMaxShardSize, "Maximum shard file size in bytes")
	pf.StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.BoolVar(&f.mmap, "mmap", false, "Memory-map shards instead of reading them")
	pf.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	pf.BoolVar(&f.trace, "trace", false, "Export trace spans to stderr")
}

func (f *globalFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("data-root") {
		cfg.Storage.DataRoot = f.dataRoot
	}
	if changed("max-shard-size") {
		cfg.Storage.MaxShardSize = f.maxShardSize
	}
	if changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if changed("mmap") {
		cfg.Storage.UseMmap = f.mmap
	}
	if changed("metrics-addr") {
		cfg.Observability.MetricsAddr = f.metricsAddr
	}
	if changed("trace") {
		cfg.Observability.Tracing = f.trace
	}
}

// app is the runtime shared by the commands of one invocation.
type app struct {
	flags globalFlags

	cfg      *config.Config
	ctx      context.Context
	log      *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	server   *http.Server
}

// setup loads configuration and starts logging, metrics and tracing.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.configPath)
	if err != nil {
		return err
	}
	a.flags.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if err := logger.Init(cfg.Logging); err != nil {
		return err
	}
	runID := uuid.NewString()
	a.ctx = context.WithValue(cmd.Context(), logger.RunIDKey, runID)
	a.log = logger.WithContext(a.ctx).With(zap.String("command", cmd.Name()))

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)
	if addr := cfg.Observability.MetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
		a.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("metrics server failed", zap.Error(err))
			}
		}()
		a.log.Info("serving metrics", zap.String("addr", addr))
	}

	tracing := observability.DefaultTracingConfig()
	tracing.Enabled = cfg.Observability.Tracing
	tracing.SamplingRate = cfg.Observability.SamplingRate
	tracing.ServiceVersion = version
	if err := observability.Init(tracing); err != nil {
		return err
	}

	a.log.Debug("configuration loaded",
		zap.String("data_root", cfg.Storage.DataRoot),
		zap.Int64("max_shard_size", cfg.Storage.MaxShardSize),
		zap.Bool("mmap", cfg.Storage.UseMmap))
	return nil
}

func (a *app) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if a.server != nil {
		errs = append(errs, a.server.Shutdown(ctx))
	}
	errs = append(errs, observability.Shutdown(ctx))
	_ = logger.Sync() // stderr sync fails on some terminals
	return errors.Join(errs...)
}

func (a *app) tableWriter() *table.Writer {
	shards := &shard.Writer{
		MaxShardSize: a.cfg.Storage.MaxShardSize,
		Logger:       a.log,
		Metrics:      a.metrics,
	}
	return table.NewWriter(a.cfg.Storage.DataRoot, shards, a.log)
}
