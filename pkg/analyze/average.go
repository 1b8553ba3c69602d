package analyze

import (
	"context"

	"github.com/catalystcommunity/db-storage-poc/pkg/column"
	"github.com/catalystcommunity/db-storage-poc/pkg/logger"
	"github.com/catalystcommunity/db-storage-poc/pkg/scan"
)

// QuantityProfile scans order line quantities alone. The minimum ignores
// zero quantities; the average covers every line.
func QuantityProfile(ctx context.Context, opts Options) (UintStat, PassSummary, error) {
	var (
		stat   UintStat
		bounds extrema[uint64]
	)
	ps, err := runPass(ctx, opts, logger.Or(opts.Logger), PassQuantities, scan.RowGroup{LineQuantity}, func(row []column.Value) {
		q := row[0].Uint64()
		if q > 0 {
			bounds.observe(q)
		}
		stat.Sum += q
		stat.Count++
	})
	if err != nil {
		return UintStat{}, PassSummary{}, err
	}
	if bounds.seen {
		stat.Min, stat.Max = bounds.min, bounds.max
	}
	return stat, ps, nil
}
