package analyze

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/catalystcommunity/db-storage-poc/pkg/column"
	"github.com/catalystcommunity/db-storage-poc/pkg/logger"
	"github.com/catalystcommunity/db-storage-poc/pkg/metrics"
	"github.com/catalystcommunity/db-storage-poc/pkg/observability"
	"github.com/catalystcommunity/db-storage-poc/pkg/scan"
	"github.com/catalystcommunity/db-storage-poc/pkg/shard"
)

// Pass names.
const (
	PassCustomers     = "customers"
	PassOrders        = "orders"
	PassOrderProducts = "order_products"
	PassQuantities    = "quantities"
)

// Options configures an analysis run.
type Options struct {
	Root   string
	Policy ReportingPolicy
	// Now supplies the clock for the reporting month; defaults to time.Now.
	Now func() time.Time
	// NarrowQuantity sums per-order quantities modulo 256.
	NarrowQuantity bool
	// TopN enables top-N product ranking when positive.
	TopN int

	Loader  shard.Loader
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Analyzer runs the customers, orders and order_products passes over a data
// root and reduces the result.
type Analyzer struct {
	opts   Options
	schema Schema
	logger *zap.Logger
}

// New returns an Analyzer for opts.
func New(opts Options) *Analyzer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Analyzer{
		opts:   opts,
		schema: DefaultSchema(opts.TopN > 0),
		logger: logger.Or(opts.Logger),
	}
}

// Run scans all three tables and returns the statistics. Any I/O, decoding
// or schema error aborts the run without a partial result.
func (a *Analyzer) Run(ctx context.Context) (*Statistics, error) {
	ctx, span := observability.StartSpan(ctx, "analyze.run")
	defer span.End()

	reporting := a.opts.Policy.Month(a.opts.Now())
	acc := NewAccumulators(reporting, a.opts.NarrowQuantity, a.opts.TopN > 0)
	span.SetAttribute("reporting_month", reporting.Format("2006-01"))

	a.logger.Info("analysis started",
		zap.String("root", a.opts.Root),
		zap.Time("reporting_month", reporting),
		zap.Bool("narrow_quantity", a.opts.NarrowQuantity),
		zap.Int("top_n", a.opts.TopN))

	passes := []struct {
		name  string
		group scan.RowGroup
		fn    func(row []column.Value)
	}{
		{PassCustomers, a.schema.Customers, func(row []column.Value) {
			acc.AddCustomer(row[0].UUID())
		}},
		{PassOrders, a.schema.Orders, func(row []column.Value) {
			acc.AddOrder(row[0].UUID(), row[1].Time(), row[2].UUID())
		}},
		{PassOrderProducts, a.schema.OrderProducts, func(row []column.Value) {
			var product column.Value
			if len(row) > 3 {
				product = row[3]
			}
			acc.AddLine(row[0].UUID(), product.UUID(), row[1].Uint64(), row[2].Decimal())
		}},
	}

	var summary ScanSummary
	for _, p := range passes {
		ps, err := runPass(ctx, a.opts, a.logger, p.name, p.group, p.fn)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		summary.Passes = append(summary.Passes, ps)
		summary.BytesScanned += ps.BytesScanned
		summary.Shards += ps.Shards
		summary.Duration += ps.Duration
	}
	summary.Throughput = metrics.Throughput(summary.BytesScanned, summary.Duration)

	stats := Reduce(acc, a.opts.TopN)
	stats.Scan = summary

	a.logger.Info("analysis complete",
		zap.Uint64("customers", stats.Customers),
		zap.Uint64("orders", stats.Orders),
		zap.Uint64("orphan_lines", stats.OrphanLines),
		zap.Int64("bytes_scanned", summary.BytesScanned),
		zap.Duration("duration", summary.Duration),
		zap.Float64("bytes_per_second", summary.Throughput))
	return &stats, nil
}

// runPass scans group and feeds every row to fn.
func runPass(ctx context.Context, opts Options, log *zap.Logger, name string, group scan.RowGroup, fn func(row []column.Value)) (PassSummary, error) {
	_, span := observability.StartSpan(ctx, "analyze.pass")
	span.SetAttribute("pass", name)
	defer span.End()

	log = log.With(zap.String("pass", name))
	timer := metrics.NewTimer()

	sc, err := scan.Open(opts.Root, group, scan.Options{
		Loader:  opts.Loader,
		Metrics: opts.Metrics,
		Logger:  log,
	})
	if err != nil {
		span.RecordError(err)
		return PassSummary{}, err
	}

	err = sc.Each(func(row []column.Value) error {
		fn(row)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return PassSummary{}, err
	}

	stats := sc.Stats()
	ps := PassSummary{
		Pass:         name,
		Rows:         stats.Rows,
		Shards:       stats.ShardsLoaded,
		BytesScanned: stats.BytesScanned,
		Duration:     timer.Stop(),
	}
	opts.Metrics.ObservePass(name, ps.Rows, ps.BytesScanned, ps.Duration)
	span.SetAttribute("rows", ps.Rows)
	span.SetAttribute("bytes_scanned", ps.BytesScanned)

	log.Info("pass complete",
		zap.Uint64("rows", ps.Rows),
		zap.Int("shards", ps.Shards),
		zap.Int64("bytes", ps.BytesScanned),
		zap.Duration("duration", ps.Duration))
	return ps, nil
}
