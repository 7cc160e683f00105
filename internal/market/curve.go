package market

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Curve is the linear price law price(S) = S * num / den, S in smallest
// units. Division truncates.
type Curve struct {
	num *uint256.Int
	den *uint256.Int
}

// NewLinearCurve builds a curve with slope num/den.
func NewLinearCurve(num, den *uint256.Int) (Curve, error) {
	if num == nil || den == nil || den.IsZero() {
		return Curve{}, fmt.Errorf("%w: denominator must be positive", ErrInvalidCurve)
	}
	return Curve{num: new(uint256.Int).Set(num), den: new(uint256.Int).Set(den)}, nil
}

// DefaultCurve is 10^12 / 10^18: each whole unit of supply adds 10^12 wei
// to the price.
func DefaultCurve() Curve {
	ten := uint256.NewInt(10)
	return Curve{
		num: new(uint256.Int).Exp(ten, uint256.NewInt(12)),
		den: new(uint256.Int).Exp(ten, uint256.NewInt(18)),
	}
}

// Numerator returns the slope numerator.
func (c Curve) Numerator() *uint256.Int { return new(uint256.Int).Set(c.num) }

// Denominator returns the slope denominator.
func (c Curve) Denominator() *uint256.Int { return new(uint256.Int).Set(c.den) }

// PriceAt returns the price at the given supply. ok is false when
// supply*num does not fit in 256 bits.
func (c Curve) PriceAt(supply *uint256.Int) (price *uint256.Int, ok bool) {
	p, overflow := new(uint256.Int).MulOverflow(supply, c.num)
	if overflow {
		return nil, false
	}
	return p.Div(p, c.den), true
}

func (c Curve) String() string {
	return c.num.Dec() + "/" + c.den.Dec()
}
