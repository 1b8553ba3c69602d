package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/catalystcommunity/db-storage-poc/internal/datagen"
	"github.com/catalystcommunity/db-storage-poc/pkg/analyze"
	"github.com/catalystcommunity/db-storage-poc/pkg/compression"
	"github.com/catalystcommunity/db-storage-poc/pkg/config"
	cserrors "github.com/catalystcommunity/db-storage-poc/pkg/errors"
	"github.com/catalystcommunity/db-storage-poc/pkg/performance"
	"github.com/catalystcommunity/db-storage-poc/pkg/report"
	"github.com/catalystcommunity/db-storage-poc/pkg/shard"
	"github.com/catalystcommunity/db-storage-poc/pkg/snapshot"
)

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "colstore",
		Short: "colstore - sharded column storage for order analytics",
		Long: `colstore stores tables as one directory per column, split into fixed-size
shard files, and computes order and customer statistics by scanning the
columns it needs.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.shutdown()
		},
	}
	a.flags.register(root)

	root.AddCommand(
		newVersionCommand(),
		newGenerateCommand(a),
		newAnalyzeCommand(a),
		newAverageCommand(a),
		newSnapshotCommand(a),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	noop := func(*cobra.Command, []string) error { return nil }
	return &cobra.Command{
		Use:                "version",
		Short:              "Show version information",
		PersistentPreRunE:  noop,
		PersistentPostRunE: noop,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "colstore v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newGenerateCommand(a *app) *cobra.Command {
	var (
		counts    datagen.Counts
		seed      uint64
		batchSize int
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate synthetic customers, products and orders",
		Long: `Generate appends synthetic rows to the customers, products, orders and
order_products tables under the data root. Running it again appends more rows.

Example:
  colstore generate --customers 10000 --orders 100000 --max-products 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = uint64(time.Now().UnixNano())
			}
			a.log.Info("generating data",
				zap.Int("customers", counts.Customers),
				zap.Int("products", counts.Products),
				zap.Int("orders", counts.Orders),
				zap.Int("max_products", counts.MaxProducts),
				zap.Uint64("seed", seed))

			g := datagen.New(datagen.Options{Seed: seed, BatchSize: batchSize, Logger: a.log})
			res, err := g.Generate(a.ctx, a.tableWriter(), counts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Customers: %d\nProducts: %d\nOrders: %d\nOrder products: %d\n",
				res.Customers, res.Products, res.Orders, res.OrderProducts)
			return nil
		},
	}
	cmd.Flags().IntVar(&counts.Customers, "customers", 1000, "Number of customers to generate")
	cmd.Flags().IntVar(&counts.Products, "products", 1000, "Number of products to generate")
	cmd.Flags().IntVar(&counts.Orders, "orders", 1000, "Number of orders to generate")
	cmd.Flags().IntVar(&counts.MaxProducts, "max-products", 10, "Maximum lines per order")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (defaults to the current time)")
	cmd.Flags().IntVar(&batchSize, "batch-size", datagen.DefaultBatchSize, "Rows generated per write")
	return cmd
}

func newAnalyzeCommand(a *app) *cobra.Command {
	var (
		format         string
		topN           int
		graceDays      int
		narrowQuantity bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Scan the data root and report order statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			analysis := a.cfg.Analysis
			if cmd.Flags().Changed("top-n") {
				analysis.TopN = topN
			}
			if cmd.Flags().Changed("grace-days") {
				analysis.GraceDays = graceDays
			}
			if cmd.Flags().Changed("narrow-quantity") {
				analysis.NarrowQuantity = narrowQuantity
			}
			cfg := *a.cfg
			cfg.Analysis = analysis
			if err := cfg.Validate(); err != nil {
				return err
			}

			monitor, err := performance.NewResourceMonitor()
			if err != nil {
				a.log.Warn("resource monitor unavailable", zap.Error(err))
			}
			stats, err := analyze.New(a.analyzeOptions(analysis)).Run(a.ctx)
			if err != nil {
				return err
			}
			if monitor != nil {
				monitor.Log(a.log, "analysis resources")
			}
			return report.Render(cmd.OutOrStdout(), f, report.FromStatistics(stats))
		},
	}
	cmd.Flags().StringVar(&format, "format", string(report.FormatText), "Output format (text, json, yaml)")
	cmd.Flags().IntVar(&topN, "top-n", 0, "Rank the top N products by quantity and by orders")
	cmd.Flags().IntVar(&graceDays, "grace-days", analyze.DefaultGraceDays, "Days into a month that still report the previous month")
	cmd.Flags().BoolVar(&narrowQuantity, "narrow-quantity", false, "Sum per-order quantities modulo 256")
	return cmd
}

func newAverageCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "average",
		Short: "Profile order line quantities",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			monitor, err := performance.NewResourceMonitor()
			if err != nil {
				a.log.Warn("resource monitor unavailable", zap.Error(err))
			}
			stat, pass, err := analyze.QuantityProfile(a.ctx, a.analyzeOptions(a.cfg.Analysis))
			if err != nil {
				return err
			}
			if monitor != nil {
				monitor.Log(a.log, "average resources")
			}
			if _, err := stat.Avg(); errors.Is(err, cserrors.ErrNoData) {
				a.log.Warn("no quantities scanned", zap.String("data_root", a.cfg.Storage.DataRoot))
			}
			return report.Render(cmd.OutOrStdout(), f, report.FromProfile(stat, pass))
		},
	}
	cmd.Flags().StringVar(&format, "format", string(report.FormatText), "Output format (text, json, yaml)")
	return cmd
}

func newSnapshotCommand(a *app) *cobra.Command {
	var (
		algorithm string
		level     int
	)
	compressor := func(cmd *cobra.Command) (compression.Compressor, error) {
		snap := a.cfg.Snapshot
		if cmd.Flags().Changed("algorithm") {
			snap.Algorithm = algorithm
		}
		if cmd.Flags().Changed("level") {
			snap.Level = level
		}
		cc, err := snap.Compression()
		if err != nil {
			return nil, err
		}
		return compression.NewCompressor(cc)
	}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export or import the data root as a compressed archive",
	}
	cmd.PersistentFlags().StringVar(&algorithm, "algorithm", string(compression.Zstd), "Compression (zstd, lz4, s2, snappy, gzip, deflate, none)")
	cmd.PersistentFlags().IntVar(&level, "level", int(compression.Default), "Compression level, 1 (fastest) to 9 (best)")

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the data root to an archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := compressor(cmd)
			if err != nil {
				return err
			}
			f, err := os.Create(out) //nolint:gosec // G304: path from --out
			if err != nil {
				return cserrors.Wrap(err, cserrors.ErrorTypeIO, "create archive")
			}
			res, err := snapshot.New(comp, a.log).Export(a.ctx, a.cfg.Storage.DataRoot, f)
			if cerr := f.Close(); err == nil && cerr != nil {
				err = cserrors.Wrap(cerr, cserrors.ErrorTypeIO, "close archive")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d files (%d bytes) to %s\n", res.Files, res.Bytes, out)
			return nil
		},
	}
	export.Flags().StringVar(&out, "out", "", "Archive file to write")
	_ = export.MarkFlagRequired("out")

	var in string
	imp := &cobra.Command{
		Use:   "import",
		Short: "Restore an archive into the data root",
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := compressor(cmd)
			if err != nil {
				return err
			}
			f, err := os.Open(in) //nolint:gosec // G304: path from --in
			if err != nil {
				return cserrors.Wrap(err, cserrors.ErrorTypeIO, "open archive")
			}
			defer f.Close()
			res, err := snapshot.New(comp, a.log).Import(a.ctx, f, a.cfg.Storage.DataRoot)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d files (%d bytes) into %s\n", res.Files, res.Bytes, a.cfg.Storage.DataRoot)
			return nil
		},
	}
	imp.Flags().StringVar(&in, "in", "", "Archive file to read")
	_ = imp.MarkFlagRequired("in")

	cmd.AddCommand(export, imp)
	return cmd
}

func (a *app) analyzeOptions(analysis config.AnalysisConfig) analyze.Options {
	return analyze.Options{
		Root:           a.cfg.Storage.DataRoot,
		Policy:         analysis.Policy(),
		NarrowQuantity: analysis.NarrowQuantity,
		TopN:           analysis.TopN,
		Loader:         shard.NewLoader(a.cfg.Storage.UseMmap),
		Metrics:        a.metrics,
		Logger:         a.log,
	}
}
