package decimal_math

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/krazyTry/igain-go/shared"
)

var (
	ErrNegativeAmount = errors.New("amount cannot be negative")
	ErrTooManyDigits  = errors.New("amount has more than 18 fractional digits")
	ErrAmountOverflow = errors.New("amount overflows 256 bits")
)

// ToFixed converts a human amount ("1.5") into its 18-decimal fixed-point
// representation. Precision beyond 18 decimals is rejected, not rounded.
func ToFixed(d decimal.Decimal) (*uint256.Int, error) {
	if d.IsNegative() {
		return nil, ErrNegativeAmount
	}
	scaled := d.Mul(Pow10(shared.Decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, ErrTooManyDigits
	}
	v, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, ErrAmountOverflow
	}
	return v, nil
}

// ParseFixed parses a decimal string into fixed point.
func ParseFixed(s string) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return ToFixed(d)
}

// MustParseFixed is ParseFixed for constants and tests.
func MustParseFixed(s string) *uint256.Int {
	v, err := ParseFixed(s)
	if err != nil {
		panic(err)
	}
	return v
}

// FromFixed converts an 18-decimal fixed-point value into a decimal.
func FromFixed(v *uint256.Int) decimal.Decimal {
	return decimal.NewFromBigInt(v.ToBig(), -shared.Decimals)
}

// FromFixedFloat approximates v as float64, used for metrics only.
func FromFixedFloat(v *uint256.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v.ToBig()), new(big.Float).SetInt(shared.One.ToBig())).Float64()
	return f
}

// FromBps converts basis points into an 18-decimal fraction.
func FromBps(bps uint64) *uint256.Int {
	v := new(uint256.Int).Mul(uint256.NewInt(bps), shared.One)
	return v.Div(v, uint256.NewInt(shared.MaxBasisPoint))
}
