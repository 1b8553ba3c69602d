// Package datagen produces seeded synthetic customers, products, orders and
// order lines and writes them through a table.Writer in bounded batches.
package datagen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/catalystcommunity/db-storage-poc/pkg/analyze"
	"github.com/catalystcommunity/db-storage-poc/pkg/column"
	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
	"github.com/catalystcommunity/db-storage-poc/pkg/logger"
	"github.com/catalystcommunity/db-storage-poc/pkg/table"
)

// DefaultBatchSize is the number of rows generated per write.
const DefaultBatchSize = 100_000

// Counts sizes a generated dataset.
type Counts struct {
	Customers int
	Products  int
	Orders    int
	// MaxProducts caps the lines per order; each order gets 1..MaxProducts.
	MaxProducts int
}

// Validate rejects counts that cannot produce a consistent dataset.
func (c Counts) Validate() error {
	if c.Customers < 0 || c.Products < 0 || c.Orders < 0 {
		return errors.New(errors.ErrorTypeConfig, "counts cannot be negative")
	}
	if c.Orders > 0 && (c.Customers == 0 || c.Products == 0) {
		return errors.New(errors.ErrorTypeConfig, "orders need at least one customer and one product")
	}
	if c.Orders > 0 && (c.MaxProducts < 1 || c.MaxProducts > 255) {
		return errors.Newf(errors.ErrorTypeConfig, "max products must be between 1 and 255, got %d", c.MaxProducts)
	}
	return nil
}

// Options configures a Generator.
type Options struct {
	Seed      uint64
	BatchSize int
	// Now anchors generated timestamps; defaults to time.Now.
	Now    func() time.Time
	Logger *zap.Logger
}

// Result counts the rows written per table.
type Result struct {
	Customers     int
	Products      int
	Orders        int
	OrderProducts int
}

// Generator produces deterministic rows for a seed. Customer and product ids
// are retained so orders and lines can reference them.
type Generator struct {
	rng    *rand.Rand
	src    *rand.ChaCha8
	now    time.Time
	batch  int
	logger *zap.Logger

	customers []uuid.UUID
	products  []uuid.UUID
	prices    []decimal.Decimal
}

// New returns a Generator for opts.
func New(opts Options) *Generator {
	var seed [32]byte
	for i := 0; i < 8; i++ {
		seed[i] = byte(opts.Seed >> (8 * i))
	}
	src := rand.NewChaCha8(seed)
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &Generator{
		rng:    rand.New(src),
		src:    src,
		now:    now().UTC().Truncate(time.Millisecond),
		batch:  batch,
		logger: logger.Or(opts.Logger),
	}
}

// Generate writes counts rows into w: customers, then products, then orders
// together with their lines.
func (g *Generator) Generate(ctx context.Context, w *table.Writer, counts Counts) (*Result, error) {
	if err := counts.Validate(); err != nil {
		return nil, err
	}
	res := &Result{}

	write := func(t *table.Table) error {
		if t.Rows() == 0 {
			return nil
		}
		_, err := w.Write(ctx, t)
		return err
	}

	for done := 0; done < counts.Customers; done += g.batch {
		t, err := g.Customers(min(g.batch, counts.Customers-done))
		if err != nil {
			return nil, err
		}
		if err := write(t); err != nil {
			return nil, err
		}
		res.Customers += t.Rows()
	}
	g.logger.Info("customers generated", zap.Int("rows", res.Customers))

	for done := 0; done < counts.Products; done += g.batch {
		t, err := g.Products(min(g.batch, counts.Products-done))
		if err != nil {
			return nil, err
		}
		if err := write(t); err != nil {
			return nil, err
		}
		res.Products += t.Rows()
	}
	g.logger.Info("products generated", zap.Int("rows", res.Products))

	for done := 0; done < counts.Orders; done += g.batch {
		orders, lines, err := g.Orders(min(g.batch, counts.Orders-done), counts.MaxProducts)
		if err != nil {
			return nil, err
		}
		if err := write(orders); err != nil {
			return nil, err
		}
		if err := write(lines); err != nil {
			return nil, err
		}
		res.Orders += orders.Rows()
		res.OrderProducts += lines.Rows()
		g.logger.Debug("order batch generated",
			zap.Int("orders", res.Orders),
			zap.Int("lines", res.OrderProducts))
	}
	g.logger.Info("orders generated",
		zap.Int("rows", res.Orders),
		zap.Int("lines", res.OrderProducts))

	return res, nil
}

// Customers returns a batch of n customers.
func (g *Generator) Customers(n int) (*table.Table, error) {
	var (
		ids       = make([]uuid.UUID, n)
		emails    = make([]string, n)
		names     = make([]string, n)
		addresses = make([]string, n)
		created   = make([]time.Time, n)
		tzOffsets = make([]int8, n)
	)
	for i := 0; i < n; i++ {
		id, err := g.uuid()
		if err != nil {
			return nil, err
		}
		first, last := pick(g.rng, firstNames), pick(g.rng, lastNames)
		place := places[(len(g.customers)+i)%len(places)]

		ids[i] = id
		names[i] = first + " " + last
		emails[i] = fmt.Sprintf("%s.%s%d@%s", strings.ToLower(first), strings.ToLower(last), g.rng.IntN(1000), pick(g.rng, emailDomains))
		addresses[i] = fmt.Sprintf("%d %s %s, %s, %s %s",
			g.rng.IntN(256), pick(g.rng, streetWords), pick(g.rng, streetSuffixes), place.city, place.state, place.zip)
		created[i] = g.between(52*week, 0)
		tzOffsets[i] = int8(g.rng.IntN(27) - 12)
	}
	g.customers = append(g.customers, ids...)

	return table.New(analyze.TableCustomers, "id", map[string]column.Column{
		"id":        column.ID(ids...),
		"email":     column.Text(emails...),
		"name":      column.Text(names...),
		"address":   column.Text(addresses...),
		"created":   column.Timestamp(created...),
		"tz_offset": column.Int8(tzOffsets...),
	})
}

// Products returns a batch of n products priced between 1.99 and 98.99.
func (g *Generator) Products(n int) (*table.Table, error) {
	var (
		ids          = make([]uuid.UUID, n)
		shortCodes   = make([]string, n)
		saleDates    = make([]time.Time, n)
		displayNames = make([]string, n)
		descriptions = make([]string, n)
		prices       = make([]decimal.Decimal, n)
		stock        = make([]int64, n)
	)
	for i := 0; i < n; i++ {
		id, err := g.uuid()
		if err != nil {
			return nil, err
		}
		ids[i] = id
		shortCodes[i] = fmt.Sprint(g.rng.Uint32())
		saleDates[i] = g.between(52*week, 30*week)
		displayNames[i] = pick(g.rng, buzzwords) + " " + pick(g.rng, nouns)
		descriptions[i] = pick(g.rng, catchPhrases)
		prices[i] = price(g.rng)
		stock[i] = g.rng.Int64N(10_000) - 100
	}
	g.products = append(g.products, ids...)
	g.prices = append(g.prices, prices...)

	return table.New(analyze.TableProducts, "id", map[string]column.Column{
		"id":                column.ID(ids...),
		"short_code":        column.Text(shortCodes...),
		"initial_sale_date": column.Timestamp(saleDates...),
		"display_name":      column.Text(displayNames...),
		"description":       column.Text(descriptions...),
		"price":             column.Decimal(prices...),
		"stock":             column.Int64(stock...),
	})
}

// Orders returns a batch of n orders and their lines. Each line is priced
// at its product's price. Customers and Products must have run first.
func (g *Generator) Orders(n, maxProducts int) (*table.Table, *table.Table, error) {
	if len(g.customers) == 0 || len(g.products) == 0 {
		return nil, nil, errors.New(errors.ErrorTypeConfig, "orders need generated customers and products")
	}
	var (
		ids       = make([]uuid.UUID, n)
		created   = make([]time.Time, n)
		customers = make([]uuid.UUID, n)
		taxes     = make([]decimal.Decimal, n)
		discounts = make([]decimal.Decimal, n)
		lineCount = make([]uint8, n)

		lineIDs    []uuid.UUID
		lineOrders []uuid.UUID
		products   []uuid.UUID
		quantities []uint64
		prices     []decimal.Decimal
	)
	for i := 0; i < n; i++ {
		id, err := g.uuid()
		if err != nil {
			return nil, nil, err
		}
		ids[i] = id
		created[i] = g.between(52*week, 0)
		customers[i] = pick(g.rng, g.customers)
		taxes[i] = decimal.New(int64(30+g.rng.IntN(65)), -1)
		discounts[i] = decimal.New(int64(1+g.rng.IntN(198)), -2)

		lines := 1 + g.rng.IntN(maxProducts)
		lineCount[i] = uint8(lines)
		for j := 0; j < lines; j++ {
			lineID, err := g.uuid()
			if err != nil {
				return nil, nil, err
			}
			p := g.rng.IntN(len(g.products))
			lineIDs = append(lineIDs, lineID)
			lineOrders = append(lineOrders, id)
			products = append(products, g.products[p])
			quantities = append(quantities, uint64(1+g.rng.IntN(9)))
			prices = append(prices, g.prices[p])
		}
	}

	orders, err := table.New(analyze.TableOrders, "id", map[string]column.Column{
		"id":              column.ID(ids...),
		"created":         column.Timestamp(created...),
		"customer_id":     column.ForeignKey(customers...),
		"tax_percent":     column.Decimal(taxes...),
		"discount_amount": column.Decimal(discounts...),
		"line_count":      column.Uint8(lineCount...),
	})
	if err != nil {
		return nil, nil, err
	}
	lines, err := table.New(analyze.TableOrderProducts, "id", map[string]column.Column{
		"id":         column.ID(lineIDs...),
		"order_id":   column.ForeignKey(lineOrders...),
		"product_id": column.ForeignKey(products...),
		"quantity":   column.Uint64(quantities...),
		"price_per":  column.Decimal(prices...),
	})
	if err != nil {
		return nil, nil, err
	}
	return orders, lines, nil
}

const week = 7 * 24 * time.Hour

func (g *Generator) uuid() (uuid.UUID, error) {
	return uuid.NewRandomFromReader(g.src)
}

// between returns a millisecond-precision instant between from and to
// before now.
func (g *Generator) between(from, to time.Duration) time.Time {
	span := int64(from-to) / int64(time.Millisecond)
	offset := time.Duration(g.rng.Int64N(span)) * time.Millisecond
	return g.now.Add(-from + offset)
}

func price(rng *rand.Rand) decimal.Decimal {
	n := int64(1 + rng.IntN(98))
	return decimal.New(n*100+99, -2)
}

func pick[T any](rng *rand.Rand, from []T) T {
	return from[rng.IntN(len(from))]
}
