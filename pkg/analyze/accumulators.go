package analyze

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderMeta accumulates one order's lines.
type OrderMeta struct {
	CustomerID   uuid.UUID
	ProductKinds uint64
	Quantity     uint64
	TotalPrice   decimal.Decimal
	// Discount is not read by the orders pass and stays zero; totals are
	// undiscounted.
	Discount decimal.Decimal
}

// CustomerMeta accumulates one customer's orders.
type CustomerMeta struct {
	Orders       uint64
	ProductKinds uint64
	Quantity     uint64
	TotalPrice   decimal.Decimal
}

// Accumulators holds the per-entity maps built up by the passes of one run.
type Accumulators struct {
	ReportingMonth time.Time
	NarrowQuantity bool

	Orders         map[uuid.UUID]*OrderMeta
	Customers      map[uuid.UUID]*CustomerMeta
	OrdersPerMonth map[time.Time]uint64

	LastMonthPurchases uint64
	LastMonthCustomers map[uuid.UUID]struct{}

	CustomerRows uint64
	OrderRows    uint64
	LineRows     uint64
	OrphanLines  uint64

	// Per-product counters, nil unless product tracking is enabled.
	ProductQuantity    map[uuid.UUID]uint64
	ProductAppearances map[uuid.UUID]uint64
}

// NewAccumulators returns empty accumulators for a run reporting on
// reportingMonth.
func NewAccumulators(reportingMonth time.Time, narrowQuantity, trackProducts bool) *Accumulators {
	a := &Accumulators{
		ReportingMonth:     MonthOf(reportingMonth),
		NarrowQuantity:     narrowQuantity,
		Orders:             make(map[uuid.UUID]*OrderMeta),
		Customers:          make(map[uuid.UUID]*CustomerMeta),
		OrdersPerMonth:     make(map[time.Time]uint64),
		LastMonthCustomers: make(map[uuid.UUID]struct{}),
	}
	if trackProducts {
		a.ProductQuantity = make(map[uuid.UUID]uint64)
		a.ProductAppearances = make(map[uuid.UUID]uint64)
	}
	return a
}

// AddCustomer registers a customer row. Registering the same id twice keeps
// the existing accumulator.
func (a *Accumulators) AddCustomer(id uuid.UUID) {
	a.CustomerRows++
	a.customer(id)
}

// AddOrder registers an order row and credits it to its customer and month.
func (a *Accumulators) AddOrder(id uuid.UUID, created time.Time, customerID uuid.UUID) {
	a.OrderRows++
	if _, ok := a.Orders[id]; !ok {
		a.Orders[id] = &OrderMeta{
			CustomerID: customerID,
			TotalPrice: decimal.Zero,
			Discount:   decimal.Zero,
		}
	}

	a.customer(customerID).Orders++

	month := MonthOf(created)
	a.OrdersPerMonth[month]++
	if month.Equal(a.ReportingMonth) {
		a.LastMonthPurchases++
		a.LastMonthCustomers[customerID] = struct{}{}
	}
}

// AddLine adds an order line to its order and the order's customer. Lines
// for orders that were never registered are counted and skipped.
func (a *Accumulators) AddLine(orderID, productID uuid.UUID, quantity uint64, unitPrice decimal.Decimal) {
	a.LineRows++
	if a.ProductQuantity != nil {
		a.ProductQuantity[productID] += quantity
		a.ProductAppearances[productID]++
	}

	order, ok := a.Orders[orderID]
	if !ok {
		a.OrphanLines++
		return
	}

	lineTotal := unitPrice.Mul(decimal.NewFromBigInt(uint64Int(quantity), 0))
	order.Quantity = a.addQuantity(order.Quantity, quantity)
	order.ProductKinds++
	order.TotalPrice = order.TotalPrice.Add(lineTotal)

	if customer, ok := a.Customers[order.CustomerID]; ok {
		customer.Quantity += quantity
		customer.ProductKinds++
		customer.TotalPrice = customer.TotalPrice.Add(lineTotal)
	}
}

// addQuantity sums quantities in 64 bits, or modulo 256 in narrow mode.
func (a *Accumulators) addQuantity(sum, quantity uint64) uint64 {
	if a.NarrowQuantity {
		return uint64(uint8(sum + quantity))
	}
	return sum + quantity
}

func (a *Accumulators) customer(id uuid.UUID) *CustomerMeta {
	c, ok := a.Customers[id]
	if !ok {
		c = &CustomerMeta{TotalPrice: decimal.Zero}
		a.Customers[id] = c
	}
	return c
}
