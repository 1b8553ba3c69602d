package column

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
)

// Column is a typed vector of values. Exactly one backing slice is populated,
// selected by the kind.
type Column struct {
	kind     Kind
	texts    []string
	ints     []int64
	smalls   []int8
	uints    []uint64
	bytes    []uint8
	times    []time.Time
	decimals []decimal.Decimal
	ids      []uuid.UUID
}

func Text(values ...string) Column { return Column{kind: KindText, texts: values} }

func Int64(values ...int64) Column { return Column{kind: KindInt64, ints: values} }

func Int8(values ...int8) Column { return Column{kind: KindInt8, smalls: values} }

func Uint64(values ...uint64) Column { return Column{kind: KindUint64, uints: values} }

func Uint8(values ...uint8) Column { return Column{kind: KindUint8, bytes: values} }

func Timestamp(values ...time.Time) Column { return Column{kind: KindTimestamp, times: values} }

func Decimal(values ...decimal.Decimal) Column { return Column{kind: KindDecimal, decimals: values} }

func ID(values ...uuid.UUID) Column { return Column{kind: KindID, ids: values} }

func ForeignKey(values ...uuid.UUID) Column { return Column{kind: KindForeignKey, ids: values} }

// Kind returns the column's element kind.
func (c Column) Kind() Kind { return c.kind }

// Len returns the number of rows in the column.
func (c Column) Len() int {
	switch c.kind {
	case KindText:
		return len(c.texts)
	case KindInt64:
		return len(c.ints)
	case KindInt8:
		return len(c.smalls)
	case KindUint64:
		return len(c.uints)
	case KindUint8:
		return len(c.bytes)
	case KindTimestamp:
		return len(c.times)
	case KindDecimal:
		return len(c.decimals)
	case KindID, KindForeignKey:
		return len(c.ids)
	default:
		return 0
	}
}

// RecordSize returns the encoded size of row i, including the text delimiter.
func (c Column) RecordSize(i int) int {
	if c.kind == KindText {
		return len(c.texts[i]) + 1
	}
	return c.kind.Width()
}

// Value returns row i as a decoded scalar.
func (c Column) Value(i int) Value {
	switch c.kind {
	case KindText:
		return Value{kind: KindText, text: c.texts[i]}
	case KindInt64:
		return Value{kind: KindInt64, bits: uint64(c.ints[i])}
	case KindInt8:
		return Value{kind: KindInt8, bits: uint64(uint8(c.smalls[i]))}
	case KindUint64:
		return Value{kind: KindUint64, bits: c.uints[i]}
	case KindUint8:
		return Value{kind: KindUint8, bits: uint64(c.bytes[i])}
	case KindTimestamp:
		return Value{kind: KindTimestamp, bits: uint64(c.times[i].UnixMilli())}
	case KindDecimal:
		return Value{kind: KindDecimal, dec: c.decimals[i]}
	case KindID, KindForeignKey:
		return Value{kind: c.kind, id: c.ids[i]}
	default:
		return Value{}
	}
}

// AppendEncoded appends the encoding of rows [from, to) to dst.
func (c Column) AppendEncoded(dst []byte, from, to int) ([]byte, error) {
	var err error
	for i := from; i < to; i++ {
		if dst, err = c.appendRecord(dst, i); err != nil {
			return dst, err
		}
	}
	return dst, nil
}

func (c Column) appendRecord(dst []byte, i int) ([]byte, error) {
	switch c.kind {
	case KindText:
		s := c.texts[i]
		if strings.IndexByte(s, TextDelimiter) >= 0 {
			return dst, errors.Newf(errors.ErrorTypeDecoding, "text value at row %d contains a newline", i)
		}
		dst = append(dst, s...)
		return append(dst, TextDelimiter), nil
	case KindInt64:
		return binary.BigEndian.AppendUint64(dst, uint64(c.ints[i])), nil
	case KindInt8:
		return append(dst, byte(c.smalls[i])), nil
	case KindUint64:
		return binary.BigEndian.AppendUint64(dst, c.uints[i]), nil
	case KindUint8:
		return append(dst, c.bytes[i]), nil
	case KindTimestamp:
		return binary.BigEndian.AppendUint64(dst, uint64(c.times[i].UnixMilli())), nil
	case KindDecimal:
		return appendDecimal(dst, c.decimals[i])
	case KindID, KindForeignKey:
		return append(dst, c.ids[i][:]...), nil
	default:
		return dst, errors.Newf(errors.ErrorTypeDecoding, "cannot encode %s", c.kind)
	}
}

// Validate reports values that cannot be encoded, before any bytes are
// written.
func (c Column) Validate() error {
	if !c.kind.Valid() {
		return errors.Newf(errors.ErrorTypeDecoding, "invalid column kind %d", uint8(c.kind))
	}
	if c.kind == KindText {
		for i, s := range c.texts {
			if strings.IndexByte(s, TextDelimiter) >= 0 {
				return errors.Newf(errors.ErrorTypeDecoding, "text value at row %d contains a newline", i)
			}
		}
	}
	if c.kind == KindDecimal {
		var scratch []byte
		for i, d := range c.decimals {
			var err error
			if scratch, err = appendDecimal(scratch[:0], d); err != nil {
				return errors.Wrapf(err, errors.ErrorTypeDecoding, "decimal at row %d", i)
			}
		}
	}
	return nil
}
