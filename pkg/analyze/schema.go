// Package analyze computes order and customer statistics by scanning the
// customers, orders and order_products tables in three sequential passes.
package analyze

import (
	"github.com/catalystcommunity/db-storage-poc/pkg/column"
	"github.com/catalystcommunity/db-storage-poc/pkg/scan"
)

// Table names.
const (
	TableCustomers     = "customers"
	TableProducts      = "products"
	TableOrders        = "orders"
	TableOrderProducts = "order_products"
)

// Streams read by the passes.
var (
	CustomerID = scan.StreamSpec{Table: TableCustomers, Column: "id", Kind: column.KindID}

	OrderID       = scan.StreamSpec{Table: TableOrders, Column: "id", Kind: column.KindID}
	OrderCreated  = scan.StreamSpec{Table: TableOrders, Column: "created", Kind: column.KindTimestamp}
	OrderCustomer = scan.StreamSpec{Table: TableOrders, Column: "customer_id", Kind: column.KindForeignKey}

	LineOrder    = scan.StreamSpec{Table: TableOrderProducts, Column: "order_id", Kind: column.KindForeignKey}
	LineQuantity = scan.StreamSpec{Table: TableOrderProducts, Column: "quantity", Kind: column.KindUint64}
	LinePrice    = scan.StreamSpec{Table: TableOrderProducts, Column: "price_per", Kind: column.KindDecimal}
	LineProduct  = scan.StreamSpec{Table: TableOrderProducts, Column: "product_id", Kind: column.KindForeignKey}
)

// Schema holds the row group of each pass. Row positions within a group are
// fixed: the pass handlers read values by index.
type Schema struct {
	Customers     scan.RowGroup
	Orders        scan.RowGroup
	OrderProducts scan.RowGroup
}

// DefaultSchema returns the row groups for the standard tables. withProducts
// adds the product id stream needed for top-N counting.
func DefaultSchema(withProducts bool) Schema {
	lines := scan.RowGroup{LineOrder, LineQuantity, LinePrice}
	if withProducts {
		lines = append(lines, LineProduct)
	}
	return Schema{
		Customers:     scan.RowGroup{CustomerID},
		Orders:        scan.RowGroup{OrderID, OrderCreated, OrderCustomer},
		OrderProducts: lines,
	}
}
