package analyze

import (
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"

	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
)

// UintStat summarises a set of unsigned counts.
type UintStat struct {
	Min   uint64
	Max   uint64
	Sum   uint64
	Count uint64
}

// Avg returns Sum/Count, or errors.ErrNoData when Count is zero.
func (s UintStat) Avg() (float64, error) {
	if s.Count == 0 {
		return 0, errors.ErrNoData
	}
	return float64(s.Sum) / float64(s.Count), nil
}

// DecimalStat summarises a set of exact decimal amounts.
type DecimalStat struct {
	Min   decimal.Decimal
	Max   decimal.Decimal
	Sum   decimal.Decimal
	Count uint64
}

// Avg returns Sum/Count, or errors.ErrNoData when Count is zero.
func (s DecimalStat) Avg() (decimal.Decimal, error) {
	if s.Count == 0 {
		return decimal.Zero, errors.ErrNoData
	}
	return s.Sum.Div(decimal.NewFromBigInt(uint64Int(s.Count), 0)), nil
}

// MonthCount is one bucket of the orders-per-month histogram.
type MonthCount struct {
	Month  time.Time
	Orders uint64
}

// ProductCount ranks a product by some count.
type ProductCount struct {
	ProductID uuid.UUID
	Count     uint64
}

// PassSummary reports the work done by one scan pass.
type PassSummary struct {
	Pass         string
	Rows         uint64
	Shards       int
	BytesScanned int64
	Duration     time.Duration
}

// ScanSummary totals all passes of a run.
type ScanSummary struct {
	BytesScanned int64
	Shards       int
	Duration     time.Duration
	// Throughput is bytes scanned per second of scan time.
	Throughput float64
	Passes     []PassSummary
}

// Statistics is the result of an analysis run.
type Statistics struct {
	ReportingMonth time.Time

	Customers                 uint64
	OrdersLastMonth           uint64
	PurchasesLastMonth        uint64
	UniquePurchasersLastMonth uint64

	QuantityPerOrder  UintStat
	KindsPerOrder     UintStat
	TotalPerOrder     DecimalStat
	OrdersPerCustomer UintStat

	OrdersPerMonth []MonthCount

	Orders         uint64
	KnownCustomers uint64
	OrphanLines    uint64
	NarrowQuantity bool

	TopByQuantity   []ProductCount
	TopByAppearance []ProductCount

	Scan ScanSummary
}

// extrema tracks the smallest and largest value observed.
type extrema[T constraints.Ordered] struct {
	min, max T
	seen     bool
}

func (e *extrema[T]) observe(v T) {
	if !e.seen || v < e.min {
		e.min = v
	}
	if !e.seen || v > e.max {
		e.max = v
	}
	e.seen = true
}

// decimalExtrema is extrema for decimals, which are not Ordered.
type decimalExtrema struct {
	min, max decimal.Decimal
	seen     bool
}

func (e *decimalExtrema) observe(v decimal.Decimal) {
	if !e.seen || v.LessThan(e.min) {
		e.min = v
	}
	if !e.seen || v.GreaterThan(e.max) {
		e.max = v
	}
	e.seen = true
}

func uint64Int(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}
