package report

import (
	"bytes"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/catalystcommunity/db-storage-poc/pkg/analyze"
	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
)

func sampleStatistics() *analyze.Statistics {
	product := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	return &analyze.Statistics{
		ReportingMonth:            time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Customers:                 4,
		OrdersLastMonth:           2,
		PurchasesLastMonth:        2,
		UniquePurchasersLastMonth: 1,
		QuantityPerOrder:          analyze.UintStat{Min: 3, Max: 5, Sum: 8, Count: 2},
		KindsPerOrder:             analyze.UintStat{Min: 1, Max: 2, Sum: 3, Count: 2},
		TotalPerOrder: analyze.DecimalStat{
			Min:   decimal.RequireFromString("11"),
			Max:   decimal.RequireFromString("20.5"),
			Sum:   decimal.RequireFromString("31.5"),
			Count: 2,
		},
		OrdersPerCustomer: analyze.UintStat{Min: 2, Max: 2, Sum: 2, Count: 4},
		OrdersPerMonth: []analyze.MonthCount{
			{Month: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Orders: 1},
			{Month: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Orders: 1},
		},
		Orders:         2,
		KnownCustomers: 1,
		TopByQuantity:  []analyze.ProductCount{{ProductID: product, Count: 8}},
		Scan: analyze.ScanSummary{
			BytesScanned: 2048,
			Shards:       9,
			Duration:     2 * time.Second,
			Throughput:   1024,
			Passes:       []analyze.PassSummary{{Pass: "orders", Rows: 2, Shards: 4, BytesScanned: 1024, Duration: time.Second}},
		},
	}
}

func TestFromStatistics(t *testing.T) {
	a := FromStatistics(sampleStatistics())

	assert.Equal(t, "2024-02", a.ReportingMonth)
	assert.Equal(t, Summary{Min: "3", Max: "5", Sum: "8", Count: 2, Avg: "4.00"}, a.QuantityPerOrder)
	assert.Equal(t, Summary{Min: "11.00", Max: "20.50", Sum: "31.50", Count: 2, Avg: "15.75"}, a.TotalPerOrder)
	assert.Equal(t, "0.50", a.OrdersPerCustomer.Avg)
	assert.Equal(t, []MonthRow{{"2024-01", 1}, {"2024-02", 1}}, a.OrdersPerMonth)
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", a.TopByQuantity[0].ProductID)
	assert.Nil(t, a.TopByAppearance)
	assert.Equal(t, uint64(1024), a.Scan.BytesPerSecond)
	assert.Equal(t, "1s", a.Scan.Passes[0].Duration)
}

func TestNoDataAverages(t *testing.T) {
	a := FromStatistics(&analyze.Statistics{})
	assert.Equal(t, NoData, a.QuantityPerOrder.Avg)
	assert.Equal(t, NoData, a.TotalPerOrder.Avg)
	assert.Equal(t, NoData, a.OrdersPerCustomer.Avg)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatText, a))
	assert.Contains(t, buf.String(), "Min/Max/Avg total per order: 0.00, 0.00, no data")
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatText, FromStatistics(sampleStatistics())))

	out := buf.String()
	assert.Contains(t, out, "Customers: 4\n")
	assert.Contains(t, out, "Orders Last Month: 2\n")
	assert.Contains(t, out, "Min/Max/Avg total quantity per order: 3, 5, 4.00\n")
	assert.Contains(t, out, "Min/Max/Avg total per order: 11.00, 20.50, 15.75\n")
	assert.Contains(t, out, "  2024-01  1\n")
	assert.Contains(t, out, "Top Products By Quantity:\n")
	assert.NotContains(t, out, "Top Products By Orders")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatJSON, FromStatistics(sampleStatistics())))

	var decoded Analysis
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, *FromStatistics(sampleStatistics()), decoded)
	assert.Contains(t, buf.String(), `"sum": "31.50"`)
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatYAML, FromStatistics(sampleStatistics())))

	var decoded Analysis
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "2024-02", decoded.ReportingMonth)
	assert.Equal(t, "15.75", decoded.TotalPerOrder.Avg)
	assert.Contains(t, buf.String(), "reporting_month: 2024-02")
}

func TestRenderProfile(t *testing.T) {
	p := FromProfile(
		analyze.UintStat{Min: 1, Max: 9, Sum: 30, Count: 6},
		analyze.PassSummary{Pass: analyze.PassQuantities, Rows: 6, Shards: 1, BytesScanned: 48, Duration: time.Second},
	)
	assert.Equal(t, uint64(48), p.Scan.BytesPerSecond)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatText, p))
	assert.Contains(t, buf.String(), "Quantities read: 6\n")
	assert.Contains(t, buf.String(), "Min/Max/Avg quantity: 1, 9, 5.00\n")

	buf.Reset()
	require.NoError(t, Render(&buf, FormatText, FromProfile(analyze.UintStat{}, analyze.PassSummary{})))
	assert.Contains(t, buf.String(), "No quantities scanned")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
