package scan

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/catalystcommunity/db-storage-poc/pkg/column"
	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
	"github.com/catalystcommunity/db-storage-poc/pkg/metrics"
	"github.com/catalystcommunity/db-storage-poc/pkg/shard"
	"github.com/catalystcommunity/db-storage-poc/pkg/table"
)

func writeTable(t *testing.T, root string, maxShard int64, name string, cols map[string]column.Column) {
	t.Helper()
	tbl, err := table.New(name, "id", cols)
	require.NoError(t, err)
	w := table.NewWriter(root, &shard.Writer{MaxShardSize: maxShard, Logger: zap.NewNop()}, zap.NewNop())
	_, err = w.Write(context.Background(), tbl)
	require.NoError(t, err)
}

func appendColumn(t *testing.T, root, tbl, name string, col column.Column) {
	t.Helper()
	w := &shard.Writer{MaxShardSize: 1 << 20, Logger: zap.NewNop()}
	_, err := w.Append(context.Background(), shard.ColumnDir(root, tbl, name), name, col)
	require.NoError(t, err)
}

func TestRoundTripAcrossShards(t *testing.T) {
	const rows = 50
	ids := make([]uuid.UUID, rows)
	fks := make([]uuid.UUID, rows)
	i64 := make([]int64, rows)
	i8 := make([]int8, rows)
	u64 := make([]uint64, rows)
	u8 := make([]uint8, rows)
	ts := make([]time.Time, rows)
	decs := make([]decimal.Decimal, rows)
	texts := make([]string, rows)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		ids[i] = uuid.New()
		fks[i] = uuid.New()
		i64[i] = int64(i*1000 - 7)
		i8[i] = int8(i - 25)
		u64[i] = uint64(i) << 33
		u8[i] = uint8(i * 5)
		ts[i] = base.Add(time.Duration(i) * 36 * time.Hour)
		decs[i] = decimal.New(int64(i*137-900), -2)
		texts[i] = string(rune('a' + i%26))
		if i%7 == 0 {
			texts[i] = ""
		}
	}

	cols := map[string]column.Column{
		"id":      column.ID(ids...),
		"fk":      column.ForeignKey(fks...),
		"i64":     column.Int64(i64...),
		"i8":      column.Int8(i8...),
		"u64":     column.Uint64(u64...),
		"u8":      column.Uint8(u8...),
		"created": column.Timestamp(ts...),
		"price":   column.Decimal(decs...),
		"label":   column.Text(texts...),
	}
	group := RowGroup{
		{Table: "all", Column: "id", Kind: column.KindID},
		{Table: "all", Column: "fk", Kind: column.KindForeignKey},
		{Table: "all", Column: "i64", Kind: column.KindInt64},
		{Table: "all", Column: "i8", Kind: column.KindInt8},
		{Table: "all", Column: "u64", Kind: column.KindUint64},
		{Table: "all", Column: "u8", Kind: column.KindUint8},
		{Table: "all", Column: "created", Kind: column.KindTimestamp},
		{Table: "all", Column: "price", Kind: column.KindDecimal},
		{Table: "all", Column: "label", Kind: column.KindText},
	}

	for name, loader := range map[string]shard.Loader{"read": shard.ReadLoader{}, "mmap": shard.MmapLoader{}} {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			writeTable(t, root, 40, "all", cols)

			reg := prometheus.NewRegistry()
			m := metrics.New(reg)
			sc, err := Open(root, group, Options{Loader: loader, Metrics: m, Logger: zap.NewNop()})
			require.NoError(t, err)
			assert.Equal(t, uint64(rows), sc.ExpectedRows())

			var i int
			err = sc.Each(func(row []column.Value) error {
				assert.Equal(t, ids[i], row[0].UUID())
				assert.Equal(t, fks[i], row[1].UUID())
				assert.Equal(t, i64[i], row[2].Int64())
				assert.Equal(t, i8[i], row[3].Int8())
				assert.Equal(t, u64[i], row[4].Uint64())
				assert.Equal(t, u8[i], row[5].Uint8())
				assert.Equal(t, ts[i], row[6].Time())
				assert.True(t, decs[i].Equal(row[7].Decimal()), "row %d price", i)
				assert.Equal(t, texts[i], row[8].Text())
				i++
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, rows, i)

			stats := sc.Stats()
			assert.Equal(t, uint64(rows), stats.Rows)
			assert.Greater(t, stats.ShardsLoaded, len(group))
			assert.Equal(t, float64(rows*16), testutil.ToFloat64(m.BytesScanned.WithLabelValues("all", "id")))
			for _, s := range stats.Streams {
				assert.Equal(t, uint64(rows), s.Rows, s.Stream)
			}
		})
	}
}

func TestStreamsSpanTables(t *testing.T) {
	root := t.TempDir()
	a, b := uuid.New(), uuid.New()
	writeTable(t, root, 16, "left", map[string]column.Column{"id": column.ID(a, b)})
	writeTable(t, root, 1024, "right", map[string]column.Column{"id": column.ID(b, a), "n": column.Uint8(1, 2)})

	sc, err := Open(root, RowGroup{
		{Table: "left", Column: "id", Kind: column.KindID},
		{Table: "right", Column: "n", Kind: column.KindUint8},
	}, Options{Logger: zap.NewNop()})
	require.NoError(t, err)

	var got []uint8
	require.NoError(t, sc.Each(func(row []column.Value) error {
		got = append(got, row[1].Uint8())
		return nil
	}))
	assert.Equal(t, []uint8{1, 2}, got)
}

func TestEmptyGroupScansNothing(t *testing.T) {
	sc, err := Open(t.TempDir(), RowGroup{{Table: "orders", Column: "id", Kind: column.KindID}}, Options{})
	require.NoError(t, err)
	assert.False(t, sc.Next())
	assert.NoError(t, sc.Err())
	assert.NoError(t, sc.Close())
}

func TestRowCountMismatchRejected(t *testing.T) {
	root := t.TempDir()
	appendColumn(t, root, "orders", "id", column.ID(uuid.New(), uuid.New(), uuid.New()))
	appendColumn(t, root, "orders", "created", column.Timestamp(time.Now(), time.Now()))

	_, err := Open(root, RowGroup{
		{Table: "orders", Column: "id", Kind: column.KindID},
		{Table: "orders", Column: "created", Kind: column.KindTimestamp},
	}, Options{Logger: zap.NewNop()})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchema))

	// A stream with rows while the driver has none is a mismatch too.
	_, err = Open(root, RowGroup{
		{Table: "orders", Column: "missing", Kind: column.KindID},
		{Table: "orders", Column: "id", Kind: column.KindID},
	}, Options{Logger: zap.NewNop()})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchema))
}

func TestTruncatedShardRejected(t *testing.T) {
	root := t.TempDir()
	dir := shard.ColumnDir(root, "order_products", "quantity")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(shard.Path(dir, "quantity", 0), make([]byte, 12), 0o644))

	_, err := Open(root, RowGroup{{Table: "order_products", Column: "quantity", Kind: column.KindUint64}}, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDecoding))

	textDir := shard.ColumnDir(root, "customers", "name")
	require.NoError(t, os.MkdirAll(textDir, 0o755))
	require.NoError(t, os.WriteFile(shard.Path(textDir, "name", 0), []byte("ann\nbo"), 0o644))

	_, err = Open(root, RowGroup{{Table: "customers", Column: "name", Kind: column.KindText}}, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDecoding))
}

func TestDivergenceDuringScanDetected(t *testing.T) {
	root := t.TempDir()
	appendColumn(t, root, "orders", "id", column.ID(uuid.New(), uuid.New()))
	appendColumn(t, root, "orders", "quantity", column.Uint64(1, 2))

	sc, err := Open(root, RowGroup{
		{Table: "orders", Column: "id", Kind: column.KindID},
		{Table: "orders", Column: "quantity", Kind: column.KindUint64},
	}, Options{Logger: zap.NewNop()})
	require.NoError(t, err)

	// Another shard appears after the preflight counted rows.
	dir := shard.ColumnDir(root, "orders", "quantity")
	require.NoError(t, os.WriteFile(shard.Path(dir, "quantity", 1), make([]byte, 8), 0o644))

	var n int
	err = sc.Each(func([]column.Value) error {
		n++
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchema))
	assert.Equal(t, 2, n)
}

func TestMissingShardMidScan(t *testing.T) {
	root := t.TempDir()
	writeTable(t, root, 16, "orders", map[string]column.Column{
		"id":       column.ID(uuid.New(), uuid.New(), uuid.New()),
		"quantity": column.Uint64(1, 2, 3),
	})

	sc, err := Open(root, RowGroup{
		{Table: "orders", Column: "id", Kind: column.KindID},
		{Table: "orders", Column: "quantity", Kind: column.KindUint64},
	}, Options{Logger: zap.NewNop()})
	require.NoError(t, err)

	require.NoError(t, os.Remove(shard.Path(shard.ColumnDir(root, "orders", "quantity"), "quantity", 1)))

	for sc.Next() {
	}
	require.Error(t, sc.Err())
	assert.True(t, errors.IsType(sc.Err(), errors.ErrorTypeIO))
	assert.Equal(t, uint64(2), sc.Stats().Rows)
}

func TestInvalidGroup(t *testing.T) {
	for name, group := range map[string]RowGroup{
		"empty":     {},
		"no column": {{Table: "orders", Kind: column.KindID}},
		"duplicate": {{Table: "t", Column: "c", Kind: column.KindID}, {Table: "t", Column: "c", Kind: column.KindID}},
		"bad kind":  {{Table: "t", Column: "c", Kind: column.Kind(42)}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Open(t.TempDir(), group, Options{})
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeSchema))
		})
	}
}
