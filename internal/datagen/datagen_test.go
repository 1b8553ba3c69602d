package datagen

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/catalystcommunity/db-storage-poc/pkg/analyze"
	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
	"github.com/catalystcommunity/db-storage-poc/pkg/shard"
	"github.com/catalystcommunity/db-storage-poc/pkg/table"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func generate(t *testing.T, root string, seed uint64, counts Counts) *Result {
	t.Helper()
	w := table.NewWriter(root, &shard.Writer{MaxShardSize: 4096, Logger: zap.NewNop()}, zap.NewNop())
	g := New(Options{Seed: seed, BatchSize: 7, Now: func() time.Time { return fixedNow }, Logger: zap.NewNop()})
	res, err := g.Generate(context.Background(), w, counts)
	require.NoError(t, err)
	return res
}

func readTree(t *testing.T, root string) map[string][]byte {
	t.Helper()
	files := map[string][]byte{}
	require.NoError(t, filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		files[rel], err = os.ReadFile(p)
		return err
	}))
	return files
}

func TestGenerateAnalyze(t *testing.T) {
	root := t.TempDir()
	counts := Counts{Customers: 20, Products: 5, Orders: 30, MaxProducts: 4}
	res := generate(t, root, 1, counts)

	assert.Equal(t, 20, res.Customers)
	assert.Equal(t, 5, res.Products)
	assert.Equal(t, 30, res.Orders)
	assert.GreaterOrEqual(t, res.OrderProducts, 30)
	assert.LessOrEqual(t, res.OrderProducts, 120)

	stats, err := analyze.New(analyze.Options{
		Root:   root,
		Policy: analyze.DefaultReportingPolicy(),
		Now:    func() time.Time { return fixedNow },
		TopN:   3,
		Logger: zap.NewNop(),
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(20), stats.Customers)
	assert.Equal(t, uint64(30), stats.Orders)
	assert.Equal(t, uint64(30), stats.OrdersPerCustomer.Sum)
	assert.Equal(t, uint64(30), stats.QuantityPerOrder.Count)
	assert.Zero(t, stats.OrphanLines)
	assert.GreaterOrEqual(t, stats.KindsPerOrder.Min, uint64(1))
	assert.LessOrEqual(t, stats.KindsPerOrder.Max, uint64(4))
	assert.True(t, stats.TotalPerOrder.Min.GreaterThanOrEqual(decimal.RequireFromString("1.99")))
	assert.Len(t, stats.TopByQuantity, 3)

	var monthly uint64
	for _, m := range stats.OrdersPerMonth {
		monthly += m.Orders
	}
	assert.Equal(t, uint64(30), monthly)
}

func TestGenerateIsDeterministic(t *testing.T) {
	counts := Counts{Customers: 10, Products: 3, Orders: 12, MaxProducts: 3}
	a, b, c := t.TempDir(), t.TempDir(), t.TempDir()
	generate(t, a, 42, counts)
	generate(t, b, 42, counts)
	generate(t, c, 43, counts)

	assert.Equal(t, readTree(t, a), readTree(t, b))
	assert.NotEqual(t, readTree(t, a), readTree(t, c))
}

func TestGeneratedColumns(t *testing.T) {
	g := New(Options{Seed: 7, Now: func() time.Time { return fixedNow }})
	customers, err := g.Customers(3)
	require.NoError(t, err)
	products, err := g.Products(2)
	require.NoError(t, err)
	orders, lines, err := g.Orders(4, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"address", "created", "email", "id", "name", "tz_offset"}, customers.ColumnNames())
	assert.Equal(t, 2, products.Rows())
	assert.Equal(t, 4, orders.Rows())
	assert.Equal(t, 4, lines.Rows(), "one line per order with MaxProducts 1")

	for i := 0; i < products.Rows(); i++ {
		p := products.Columns["price"].Value(i).Decimal()
		assert.True(t, p.GreaterThanOrEqual(decimal.RequireFromString("1.99")))
		assert.True(t, p.LessThanOrEqual(decimal.RequireFromString("98.99")))
	}
	for i := 0; i < customers.Rows(); i++ {
		created := customers.Columns["created"].Value(i).Time()
		assert.True(t, created.Before(fixedNow))
		assert.True(t, created.After(fixedNow.Add(-52*week-time.Millisecond)))
		assert.NotContains(t, customers.Columns["address"].Value(i).Text(), "\n")
	}
	for i := 0; i < lines.Rows(); i++ {
		q := lines.Columns["quantity"].Value(i).Uint64()
		assert.True(t, q >= 1 && q <= 9)
	}
}

func TestCountsValidate(t *testing.T) {
	for _, c := range []Counts{
		{Customers: -1},
		{Customers: 0, Products: 1, Orders: 1, MaxProducts: 1},
		{Customers: 1, Products: 1, Orders: 1, MaxProducts: 0},
		{Customers: 1, Products: 1, Orders: 1, MaxProducts: 256},
	} {
		err := c.Validate()
		require.Error(t, err, "%+v", c)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	}
	assert.NoError(t, Counts{Customers: 3}.Validate())
}
