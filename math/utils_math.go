package math

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/krazyTry/igain-go/shared"
)

// MulDiv returns x*y/denominator with a 512-bit intermediate product.
func MulDiv(x, y, denominator *uint256.Int, rounding shared.Rounding) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, ErrDivisionByZero
	}
	if x.IsZero() || y.IsZero() {
		return new(uint256.Int), nil
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, denominator)
	if overflow {
		return nil, ErrOverflow
	}
	if rounding == shared.RoundingUp && !new(uint256.Int).MulMod(x, y, denominator).IsZero() {
		return Add(z, uint256.NewInt(1))
	}
	return z, nil
}

// Sqrt returns the largest y with y*y <= value.
func Sqrt(value *uint256.Int) *uint256.Int {
	return new(uint256.Int).Sqrt(value)
}

// SqrtCeil returns the smallest y with y*y >= value.
func SqrtCeil(value *uint256.Int) *uint256.Int {
	y := Sqrt(value)
	if new(uint256.Int).Mul(y, y).Lt(value) {
		y.AddUint64(y, 1)
	}
	return y
}

func toBig(v *uint256.Int) *big.Int {
	return v.ToBig()
}

func fromBig(v *big.Int) (*uint256.Int, error) {
	if v.Sign() < 0 {
		return new(uint256.Int), nil
	}
	z, overflow := uint256.FromBig(v)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// bigSqrt is used by the quadratic estimates whose discriminants exceed 256 bits.
func bigSqrt(value *big.Int) *big.Int {
	if value.Sign() <= 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Sqrt(value)
}
