package errors_test

import (
	"fmt"
	"io"

	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
)

func Example() {
	err := errors.New(errors.ErrorTypeSchema, "table orders has no id column").
		WithDetail("table", "orders")

	fmt.Println(err.Error())
	// Output:
	// schema: table orders has no id column
}

func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeDecoding, "truncated record").
		WithDetail("shard", "quantity_00000000000000000003")

	if errors.IsType(err, errors.ErrorTypeDecoding) {
		fmt.Println("decoding error")
	}
	fmt.Println(errors.IsFatal(err))
	// Output:
	// decoding error
	// true
}
