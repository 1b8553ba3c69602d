package column

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
)

// Value is a single decoded record. Accessors for a kind other than the
// value's own return the zero value of the requested type.
type Value struct {
	kind Kind
	bits uint64
	text string
	dec  decimal.Decimal
	id   uuid.UUID
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) Int64() int64 {
	if v.kind != KindInt64 {
		return 0
	}
	return int64(v.bits)
}

func (v Value) Int8() int8 {
	if v.kind != KindInt8 {
		return 0
	}
	return int8(uint8(v.bits))
}

func (v Value) Uint64() uint64 {
	if v.kind != KindUint64 {
		return 0
	}
	return v.bits
}

func (v Value) Uint8() uint8 {
	if v.kind != KindUint8 {
		return 0
	}
	return uint8(v.bits)
}

// Time returns a timestamp value in UTC with millisecond precision.
func (v Value) Time() time.Time {
	if v.kind != KindTimestamp {
		return time.Time{}
	}
	return time.UnixMilli(int64(v.bits)).UTC()
}

func (v Value) Decimal() decimal.Decimal {
	if v.kind != KindDecimal {
		return decimal.Zero
	}
	return v.dec
}

// UUID returns the identifier held by an ID or foreign key value.
func (v Value) UUID() uuid.UUID {
	if v.kind != KindID && v.kind != KindForeignKey {
		return uuid.Nil
	}
	return v.id
}

func (v Value) Text() string {
	if v.kind != KindText {
		return ""
	}
	return v.text
}

func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindInt64:
		return fmt.Sprint(v.Int64())
	case KindInt8:
		return fmt.Sprint(v.Int8())
	case KindUint64:
		return fmt.Sprint(v.Uint64())
	case KindUint8:
		return fmt.Sprint(v.Uint8())
	case KindTimestamp:
		return v.Time().Format(time.RFC3339Nano)
	case KindDecimal:
		return v.dec.String()
	case KindID, KindForeignKey:
		return v.id.String()
	default:
		return ""
	}
}

// Decode decodes one fixed-width record of the given kind from the start of b.
func Decode(kind Kind, b []byte) (Value, error) {
	width := kind.Width()
	if width == 0 {
		return Value{}, errors.Newf(errors.ErrorTypeDecoding, "%s is not a fixed-width kind", kind)
	}
	if len(b) < width {
		return Value{}, errors.Newf(errors.ErrorTypeDecoding,
			"truncated %s record: have %d bytes, need %d", kind, len(b), width)
	}

	switch kind {
	case KindInt64:
		return Value{kind: kind, bits: binary.BigEndian.Uint64(b)}, nil
	case KindInt8, KindUint8:
		return Value{kind: kind, bits: uint64(b[0])}, nil
	case KindUint64, KindTimestamp:
		return Value{kind: kind, bits: binary.BigEndian.Uint64(b)}, nil
	case KindDecimal:
		d, err := decodeDecimal(b)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: kind, dec: d}, nil
	case KindID, KindForeignKey:
		var id uuid.UUID
		copy(id[:], b[:WidthID])
		return Value{kind: kind, id: id}, nil
	default:
		return Value{}, errors.Newf(errors.ErrorTypeDecoding, "cannot decode %s", kind)
	}
}

// DecodeText decodes the text record at the start of b and returns the number
// of bytes it consumed, delimiter included.
func DecodeText(b []byte) (Value, int, error) {
	n := bytes.IndexByte(b, TextDelimiter)
	if n < 0 {
		return Value{}, 0, errors.Newf(errors.ErrorTypeDecoding, "unterminated text record of %d bytes", len(b))
	}
	return Value{kind: KindText, text: string(b[:n])}, n + 1, nil
}

// DecodeNext decodes the record of the given kind at the start of b.
func DecodeNext(kind Kind, b []byte) (Value, int, error) {
	if kind == KindText {
		return DecodeText(b)
	}
	v, err := Decode(kind, b)
	if err != nil {
		return Value{}, 0, err
	}
	return v, kind.Width(), nil
}
