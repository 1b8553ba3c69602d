package report

import (
	"fmt"
	"io"
)

type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...interface{}) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *textWriter) summary(label string, s Summary) {
	t.printf("Min/Max/Avg %s: %s, %s, %s\n", label, s.Min, s.Max, s.Avg)
}

func (t *textWriter) scan(s Scan) {
	t.printf("Time Spent: %s\n", s.Duration)
	t.printf("Bytes Scanned: %d\n", s.BytesScanned)
	t.printf("Shards Scanned: %d\n", s.Shards)
	t.printf("Bytes per second: %d\n", s.BytesPerSecond)
}

func writeAnalysisText(w io.Writer, a *Analysis) error {
	t := &textWriter{w: w}
	t.scan(a.Scan)
	t.printf("\n")
	t.printf("Reporting Month: %s\n", a.ReportingMonth)
	t.printf("Customers: %d\n", a.Customers)
	t.printf("Orders Last Month: %d\n", a.OrdersLastMonth)
	t.printf("Customer Purchases Last Month: %d\n", a.PurchasesLastMonth)
	t.printf("Unique Customers Last Month: %d\n", a.UniquePurchasersLastMonth)
	t.summary("total quantity per order", a.QuantityPerOrder)
	t.summary("product kinds per order", a.KindsPerOrder)
	t.summary("total per order", a.TotalPerOrder)
	t.summary("orders per customer", a.OrdersPerCustomer)
	t.printf("Orders: %d\n", a.Orders)
	t.printf("Customers With Orders: %d\n", a.KnownCustomers)
	if a.OrphanLines > 0 {
		t.printf("Lines Without Order: %d\n", a.OrphanLines)
	}
	if a.NarrowQuantity {
		t.printf("Quantities summed modulo 256\n")
	}

	t.printf("Orders Per Month:\n")
	for _, m := range a.OrdersPerMonth {
		t.printf("  %s  %d\n", m.Month, m.Orders)
	}
	if len(a.TopByQuantity) > 0 {
		t.printf("Top Products By Quantity:\n")
		for i, p := range a.TopByQuantity {
			t.printf("  %2d. %s  %d\n", i+1, p.ProductID, p.Count)
		}
	}
	if len(a.TopByAppearance) > 0 {
		t.printf("Top Products By Orders:\n")
		for i, p := range a.TopByAppearance {
			t.printf("  %2d. %s  %d\n", i+1, p.ProductID, p.Count)
		}
	}
	return t.err
}

func writeProfileText(w io.Writer, p *Profile) error {
	t := &textWriter{w: w}
	t.scan(p.Scan)
	t.printf("\n")
	if p.Quantity.Count == 0 {
		t.printf("No quantities scanned, is the data root populated?\n")
		return t.err
	}
	t.printf("Quantities read: %d\n", p.Quantity.Count)
	t.summary("quantity", p.Quantity)
	return t.err
}
