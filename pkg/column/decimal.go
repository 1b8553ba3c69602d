package column

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/catalystcommunity/db-storage-poc/pkg/errors"
)

// Decimal records are 16 bytes:
//
//	byte 0      flags, bit 7 set for negative values
//	byte 1      scale, 0..28
//	bytes 2-3   zero
//	bytes 4-15  96-bit unsigned magnitude, big-endian
const (
	MaxDecimalScale = 28

	decimalSignBit       = 0x80
	decimalMagnitudeOff  = 4
	decimalMagnitudeBits = 96
)

var ten = big.NewInt(10)

func appendDecimal(dst []byte, d decimal.Decimal) ([]byte, error) {
	coef := d.Coefficient()
	exp := d.Exponent()

	if exp > 0 {
		coef.Mul(coef, new(big.Int).Exp(ten, big.NewInt(int64(exp)), nil))
		exp = 0
	}
	scale := -int64(exp)

	// Trailing zeros beyond the supported scale carry no value.
	rem := new(big.Int)
	for scale > MaxDecimalScale {
		q, r := new(big.Int).QuoRem(coef, ten, rem)
		if r.Sign() != 0 {
			return dst, errors.Newf(errors.ErrorTypeDecoding, "decimal %s exceeds scale %d", d, MaxDecimalScale)
		}
		coef = q
		scale--
	}

	var rec [WidthDecimal]byte
	if coef.Sign() < 0 {
		rec[0] = decimalSignBit
		coef.Neg(coef)
	}
	if coef.BitLen() > decimalMagnitudeBits {
		return dst, errors.Newf(errors.ErrorTypeDecoding, "decimal %s exceeds 96-bit magnitude", d)
	}
	rec[1] = byte(scale)
	coef.FillBytes(rec[decimalMagnitudeOff:])
	return append(dst, rec[:]...), nil
}

func decodeDecimal(b []byte) (decimal.Decimal, error) {
	scale := b[1]
	if scale > MaxDecimalScale {
		return decimal.Decimal{}, errors.Newf(errors.ErrorTypeDecoding, "decimal scale %d out of range", scale)
	}
	if b[0]&^decimalSignBit != 0 || b[2] != 0 || b[3] != 0 {
		return decimal.Decimal{}, errors.New(errors.ErrorTypeDecoding, "decimal record has reserved bits set")
	}
	coef := new(big.Int).SetBytes(b[decimalMagnitudeOff:WidthDecimal])
	if b[0]&decimalSignBit != 0 {
		coef.Neg(coef)
	}
	return decimal.NewFromBigInt(coef, -int32(scale)), nil
}
