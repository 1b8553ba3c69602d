package analyze

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Reduce folds the accumulators into global statistics. Per-order minimums
// ignore zero values; sums and maximums cover every order, and averages
// divide by the number of order rows scanned. The orders-per-customer
// minimum ignores customers without orders; its average is total orders
// over all scanned customers.
func Reduce(a *Accumulators, topN int) Statistics {
	stats := Statistics{
		ReportingMonth:            a.ReportingMonth,
		Customers:                 a.CustomerRows,
		OrdersLastMonth:           a.OrdersPerMonth[a.ReportingMonth],
		PurchasesLastMonth:        a.LastMonthPurchases,
		UniquePurchasersLastMonth: uint64(len(a.LastMonthCustomers)),
		Orders:                    uint64(len(a.Orders)),
		KnownCustomers:            uint64(len(a.Customers)),
		OrphanLines:               a.OrphanLines,
		NarrowQuantity:            a.NarrowQuantity,
		TotalPerOrder: DecimalStat{
			Min: decimal.Zero,
			Max: decimal.Zero,
			Sum: decimal.Zero,
		},
	}

	var (
		quantity extrema[uint64]
		kinds    extrema[uint64]
		total    decimalExtrema
	)
	for _, order := range a.Orders {
		if order.Quantity > 0 {
			quantity.observe(order.Quantity)
		}
		if order.ProductKinds > 0 {
			kinds.observe(order.ProductKinds)
		}
		if order.TotalPrice.IsPositive() {
			total.observe(order.TotalPrice)
		}
		stats.QuantityPerOrder.Max = max(stats.QuantityPerOrder.Max, order.Quantity)
		stats.KindsPerOrder.Max = max(stats.KindsPerOrder.Max, order.ProductKinds)
		if order.TotalPrice.GreaterThan(stats.TotalPerOrder.Max) {
			stats.TotalPerOrder.Max = order.TotalPrice
		}

		stats.QuantityPerOrder.Sum += order.Quantity
		stats.KindsPerOrder.Sum += order.ProductKinds
		stats.TotalPerOrder.Sum = stats.TotalPerOrder.Sum.Add(order.TotalPrice)
	}
	stats.QuantityPerOrder.Min = quantity.min
	stats.KindsPerOrder.Min = kinds.min
	if total.seen {
		stats.TotalPerOrder.Min = total.min
	}
	stats.QuantityPerOrder.Count = a.OrderRows
	stats.KindsPerOrder.Count = a.OrderRows
	stats.TotalPerOrder.Count = a.OrderRows

	var perCustomer extrema[uint64]
	for _, customer := range a.Customers {
		stats.OrdersPerCustomer.Sum += customer.Orders
		if customer.Orders > 0 {
			perCustomer.observe(customer.Orders)
		}
	}
	if perCustomer.seen {
		stats.OrdersPerCustomer.Min, stats.OrdersPerCustomer.Max = perCustomer.min, perCustomer.max
	}
	stats.OrdersPerCustomer.Count = a.CustomerRows

	stats.OrdersPerMonth = make([]MonthCount, 0, len(a.OrdersPerMonth))
	for month, n := range a.OrdersPerMonth {
		stats.OrdersPerMonth = append(stats.OrdersPerMonth, MonthCount{Month: month, Orders: n})
	}
	sort.Slice(stats.OrdersPerMonth, func(i, j int) bool {
		return stats.OrdersPerMonth[i].Month.Before(stats.OrdersPerMonth[j].Month)
	})

	if topN > 0 && a.ProductQuantity != nil {
		stats.TopByQuantity = TopN(a.ProductQuantity, topN)
		stats.TopByAppearance = TopN(a.ProductAppearances, topN)
	}
	return stats
}
