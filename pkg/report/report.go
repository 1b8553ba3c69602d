// Package report renders analysis results as text, JSON or YAML.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/catalystcommunity/db-storage-poc/pkg/analyze"
	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
)

// Format selects the rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// NoData is rendered in place of an average over an empty set.
const NoData = "no data"

// ParseFormat maps a name to its Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "unknown report format %q", name)
	}
}

// Summary is a min/max/sum/avg group with amounts as strings, so decimals
// keep their exact representation in every format.
type Summary struct {
	Min   string `json:"min" yaml:"min"`
	Max   string `json:"max" yaml:"max"`
	Sum   string `json:"sum" yaml:"sum"`
	Count uint64 `json:"count" yaml:"count"`
	Avg   string `json:"avg" yaml:"avg"`
}

// MonthRow is one orders-per-month bucket.
type MonthRow struct {
	Month  string `json:"month" yaml:"month"`
	Orders uint64 `json:"orders" yaml:"orders"`
}

// ProductRow is one ranked product.
type ProductRow struct {
	ProductID string `json:"product_id" yaml:"product_id"`
	Count     uint64 `json:"count" yaml:"count"`
}

// PassRow reports one scan pass.
type PassRow struct {
	Pass         string `json:"pass" yaml:"pass"`
	Rows         uint64 `json:"rows" yaml:"rows"`
	Shards       int    `json:"shards" yaml:"shards"`
	BytesScanned int64  `json:"bytes_scanned" yaml:"bytes_scanned"`
	Duration     string `json:"duration" yaml:"duration"`
}

// Scan totals all passes.
type Scan struct {
	BytesScanned   int64     `json:"bytes_scanned" yaml:"bytes_scanned"`
	Shards         int       `json:"shards" yaml:"shards"`
	Duration       string    `json:"duration" yaml:"duration"`
	BytesPerSecond uint64    `json:"bytes_per_second" yaml:"bytes_per_second"`
	Passes         []PassRow `json:"passes" yaml:"passes"`
}

// Analysis is the rendered form of analyze.Statistics.
type Analysis struct {
	ReportingMonth            string       `json:"reporting_month" yaml:"reporting_month"`
	Customers                 uint64       `json:"customers" yaml:"customers"`
	OrdersLastMonth           uint64       `json:"orders_last_month" yaml:"orders_last_month"`
	PurchasesLastMonth        uint64       `json:"customer_purchases_last_month" yaml:"customer_purchases_last_month"`
	UniquePurchasersLastMonth uint64       `json:"unique_customers_last_month" yaml:"unique_customers_last_month"`
	QuantityPerOrder          Summary      `json:"quantity_per_order" yaml:"quantity_per_order"`
	KindsPerOrder             Summary      `json:"kinds_per_order" yaml:"kinds_per_order"`
	TotalPerOrder             Summary      `json:"total_per_order" yaml:"total_per_order"`
	OrdersPerCustomer         Summary      `json:"orders_per_customer" yaml:"orders_per_customer"`
	Orders                    uint64       `json:"orders" yaml:"orders"`
	KnownCustomers            uint64       `json:"known_customers" yaml:"known_customers"`
	OrphanLines               uint64       `json:"orphan_lines,omitempty" yaml:"orphan_lines,omitempty"`
	NarrowQuantity            bool         `json:"narrow_quantity,omitempty" yaml:"narrow_quantity,omitempty"`
	OrdersPerMonth            []MonthRow   `json:"orders_per_month" yaml:"orders_per_month"`
	TopByQuantity             []ProductRow `json:"top_by_quantity,omitempty" yaml:"top_by_quantity,omitempty"`
	TopByAppearance           []ProductRow `json:"top_by_appearance,omitempty" yaml:"top_by_appearance,omitempty"`
	Scan                      Scan         `json:"scan" yaml:"scan"`
}

// Profile is the rendered form of a quantity profile.
type Profile struct {
	Quantity Summary `json:"quantity" yaml:"quantity"`
	Scan     Scan    `json:"scan" yaml:"scan"`
}

// FromStatistics converts s for rendering.
func FromStatistics(s *analyze.Statistics) *Analysis {
	a := &Analysis{
		ReportingMonth:            s.ReportingMonth.Format("2006-01"),
		Customers:                 s.Customers,
		OrdersLastMonth:           s.OrdersLastMonth,
		PurchasesLastMonth:        s.PurchasesLastMonth,
		UniquePurchasersLastMonth: s.UniquePurchasersLastMonth,
		QuantityPerOrder:          uintSummary(s.QuantityPerOrder),
		KindsPerOrder:             uintSummary(s.KindsPerOrder),
		TotalPerOrder:             decimalSummary(s.TotalPerOrder),
		OrdersPerCustomer:         uintSummary(s.OrdersPerCustomer),
		Orders:                    s.Orders,
		KnownCustomers:            s.KnownCustomers,
		OrphanLines:               s.OrphanLines,
		NarrowQuantity:            s.NarrowQuantity,
		OrdersPerMonth:            make([]MonthRow, 0, len(s.OrdersPerMonth)),
		TopByQuantity:             productRows(s.TopByQuantity),
		TopByAppearance:           productRows(s.TopByAppearance),
		Scan:                      fromScan(s.Scan),
	}
	for _, m := range s.OrdersPerMonth {
		a.OrdersPerMonth = append(a.OrdersPerMonth, MonthRow{Month: m.Month.Format("2006-01"), Orders: m.Orders})
	}
	return a
}

// FromProfile converts a quantity profile for rendering.
func FromProfile(stat analyze.UintStat, pass analyze.PassSummary) *Profile {
	return &Profile{
		Quantity: uintSummary(stat),
		Scan: fromScan(analyze.ScanSummary{
			BytesScanned: pass.BytesScanned,
			Shards:       pass.Shards,
			Duration:     pass.Duration,
			Throughput:   throughput(pass.BytesScanned, pass.Duration),
			Passes:       []analyze.PassSummary{pass},
		}),
	}
}

// Render writes v in format. v is an *Analysis or *Profile.
func Render(w io.Writer, format Format, v interface{}) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatText:
		switch r := v.(type) {
		case *Analysis:
			return writeAnalysisText(w, r)
		case *Profile:
			return writeProfileText(w, r)
		default:
			return fmt.Errorf("cannot render %T as text", v)
		}
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown report format %q", format)
	}
}

func uintSummary(s analyze.UintStat) Summary {
	out := Summary{
		Min:   fmt.Sprint(s.Min),
		Max:   fmt.Sprint(s.Max),
		Sum:   fmt.Sprint(s.Sum),
		Count: s.Count,
		Avg:   NoData,
	}
	if avg, err := s.Avg(); err == nil {
		out.Avg = fmt.Sprintf("%.2f", avg)
	}
	return out
}

func decimalSummary(s analyze.DecimalStat) Summary {
	out := Summary{
		Min:   s.Min.StringFixed(2),
		Max:   s.Max.StringFixed(2),
		Sum:   s.Sum.StringFixed(2),
		Count: s.Count,
		Avg:   NoData,
	}
	if avg, err := s.Avg(); err == nil {
		out.Avg = avg.StringFixed(2)
	}
	return out
}

func productRows(in []analyze.ProductCount) []ProductRow {
	if len(in) == 0 {
		return nil
	}
	out := make([]ProductRow, len(in))
	for i, p := range in {
		out[i] = ProductRow{ProductID: p.ProductID.String(), Count: p.Count}
	}
	return out
}

func fromScan(s analyze.ScanSummary) Scan {
	out := Scan{
		BytesScanned:   s.BytesScanned,
		Shards:         s.Shards,
		Duration:       s.Duration.Round(time.Microsecond).String(),
		BytesPerSecond: uint64(s.Throughput),
		Passes:         make([]PassRow, len(s.Passes)),
	}
	for i, p := range s.Passes {
		out.Passes[i] = PassRow{
			Pass:         p.Pass,
			Rows:         p.Rows,
			Shards:       p.Shards,
			BytesScanned: p.BytesScanned,
			Duration:     p.Duration.Round(time.Microsecond).String(),
		}
	}
	return out
}

func throughput(bytes int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(bytes) / elapsed.Seconds()
}
