package analyze

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/catalystcommunity/db-storage-poc/pkg/column"
	"github.com/catalystcommunity/db-storage-poc/pkg/shard"
	"github.com/catalystcommunity/db-storage-poc/pkg/table"
)

type testOrder struct {
	id       uuid.UUID
	created  time.Time
	customer uuid.UUID
}

type testLine struct {
	order    uuid.UUID
	product  uuid.UUID
	quantity uint64
	price    string
}

type dataset struct {
	customers []uuid.UUID
	orders    []testOrder
	lines     []testLine
}

func (d dataset) write(t *testing.T, root string) {
	t.Helper()
	w := table.NewWriter(root, &shard.Writer{MaxShardSize: 48, Logger: zap.NewNop()}, zap.NewNop())

	write := func(name string, cols map[string]column.Column) {
		tbl, err := table.New(name, "id", cols)
		require.NoError(t, err)
		_, err = w.Write(context.Background(), tbl)
		require.NoError(t, err)
	}

	write(TableCustomers, map[string]column.Column{"id": column.ID(d.customers...)})

	var (
		orderIDs, customerIDs []uuid.UUID
		created               []time.Time
	)
	for _, o := range d.orders {
		orderIDs = append(orderIDs, o.id)
		created = append(created, o.created)
		customerIDs = append(customerIDs, o.customer)
	}
	write(TableOrders, map[string]column.Column{
		"id":          column.ID(orderIDs...),
		"created":     column.Timestamp(created...),
		"customer_id": column.ForeignKey(customerIDs...),
	})

	var (
		lineIDs, lineOrders, products []uuid.UUID
		quantities                    []uint64
		prices                        []decimal.Decimal
	)
	for _, l := range d.lines {
		lineIDs = append(lineIDs, uuid.New())
		lineOrders = append(lineOrders, l.order)
		products = append(products, l.product)
		quantities = append(quantities, l.quantity)
		prices = append(prices, decimal.RequireFromString(l.price))
	}
	write(TableOrderProducts, map[string]column.Column{
		"id":         column.ID(lineIDs...),
		"order_id":   column.ForeignKey(lineOrders...),
		"product_id": column.ForeignKey(products...),
		"quantity":   column.Uint64(quantities...),
		"price_per":  column.Decimal(prices...),
	})
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func idColumn(ids ...uuid.UUID) column.Column {
	return column.ID(ids...)
}
