// Package column defines the closed set of column kinds the engine stores
// and the binary record codec for each of them.
package column

import (
	"fmt"
	"strings"
)

// Kind identifies the element type of a column.
type Kind uint8

const (
	KindText Kind = iota
	KindInt64
	KindInt8
	KindUint64
	KindUint8
	KindTimestamp
	KindDecimal
	KindID
	KindForeignKey
)

// Record widths in bytes for the fixed-width kinds.
const (
	WidthInt64     = 8
	WidthInt8      = 1
	WidthUint64    = 8
	WidthUint8     = 1
	WidthTimestamp = 8
	WidthDecimal   = 16
	WidthID        = 16
)

// TextDelimiter terminates every text record.
const TextDelimiter = '\n'

var kindNames = [...]string{
	KindText:       "text",
	KindInt64:      "int64",
	KindInt8:       "int8",
	KindUint64:     "uint64",
	KindUint8:      "uint8",
	KindTimestamp:  "timestamp",
	KindDecimal:    "decimal",
	KindID:         "id",
	KindForeignKey: "foreign_key",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k <= KindForeignKey
}

// Width returns the encoded size of one record, or 0 for text.
func (k Kind) Width() int {
	switch k {
	case KindInt64:
		return WidthInt64
	case KindInt8:
		return WidthInt8
	case KindUint64:
		return WidthUint64
	case KindUint8:
		return WidthUint8
	case KindTimestamp:
		return WidthTimestamp
	case KindDecimal:
		return WidthDecimal
	case KindID, KindForeignKey:
		return WidthID
	default:
		return 0
	}
}

// Fixed reports whether every record of this kind has the same width.
func (k Kind) Fixed() bool {
	return k.Width() > 0
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown column kind %q", s)
}
