package decimal_math

import (
	"github.com/shopspring/decimal"
)

// Pow10 returns 10^n without going through float64.
func Pow10(n int32) decimal.Decimal {
	return decimal.New(1, n)
}
