// Package units converts between human-readable decimal amounts and integer
// amounts in smallest units.
package units

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrNegative      = errors.New("amount is negative")
	ErrPrecision     = errors.New("too many fractional digits")
	ErrOverflow      = errors.New("amount does not fit in 256 bits")
	ErrUnknownUnit   = errors.New("unknown unit")
)

// Native denominations and their decimals.
var Denominations = map[string]uint8{
	"wei":   0,
	"gwei":  9,
	"ether": 18,
	"eth":   18,
}

// Decimals returns the decimals of a native denomination.
func Decimals(unit string) (uint8, error) {
	d, ok := Denominations[strings.ToLower(unit)]
	if !ok {
		return 0, fmt.Errorf("%w %q: use eth, gwei or wei", ErrUnknownUnit, unit)
	}
	return d, nil
}

// ParseUnits turns "1.5" with 18 decimals into 1500000000000000000.
func ParseUnits(s string, decimals uint8) (*uint256.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrInvalidAmount, s)
	}
	if d.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegative, s)
	}
	shifted := d.Shift(int32(decimals))
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("%w: %s has more than %d decimals", ErrPrecision, s, decimals)
	}
	v, overflow := uint256.FromBig(shifted.BigInt())
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrOverflow, s)
	}
	return v, nil
}

// MustParseUnits is ParseUnits for constants. It panics on error.
func MustParseUnits(s string, decimals uint8) *uint256.Int {
	v, err := ParseUnits(s, decimals)
	if err != nil {
		panic(err)
	}
	return v
}

// FormatUnits renders v with the given decimals, trailing zeros trimmed.
func FormatUnits(v *uint256.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}
	return ToDecimal(v, decimals).String()
}

// FormatFixed renders v rounded to places fractional digits.
func FormatFixed(v *uint256.Int, decimals uint8, places int32) string {
	if v == nil {
		v = new(uint256.Int)
	}
	return ToDecimal(v, decimals).StringFixed(places)
}

// ToDecimal converts v to an exact decimal.
func ToDecimal(v *uint256.Int, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(v.ToBig(), -int32(decimals))
}

// OneUnit returns 10^decimals.
func OneUnit(decimals uint8) *uint256.Int {
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(decimals)))
}
