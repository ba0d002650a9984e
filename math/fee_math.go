package math

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/krazyTry/igain-go/shared"
)

var ErrInvalidFeeBounds = errors.New("fee bounds must satisfy 0 <= minFee <= maxFee <= 1e18")

// ValidateFees checks the configured fee bounds.
func ValidateFees(minFee, maxFee *uint256.Int) error {
	if minFee.Gt(maxFee) || maxFee.Gt(shared.One) {
		return ErrInvalidFeeBounds
	}
	return nil
}

// GetFeeNumerator returns the fee charged at txTime. It grows linearly from
// minFee at openTime to maxFee at closeTime; txTime is clamped into the epoch.
func GetFeeNumerator(openTime, closeTime, txTime uint64, minFee, maxFee *uint256.Int) *uint256.Int {
	if closeTime <= openTime {
		return maxFee.Clone()
	}
	if txTime < openTime {
		txTime = openTime
	}
	if txTime > closeTime {
		txTime = closeTime
	}

	// fee = minFee + (maxFee - minFee) * (txTime - openTime) / (closeTime - openTime)
	spread := new(uint256.Int).Sub(maxFee, minFee)
	elapsed := uint256.NewInt(txTime - openTime)
	duration := uint256.NewInt(closeTime - openTime)
	// spread <= 1e18 and elapsed < 2^64, the product cannot overflow.
	step := new(uint256.Int).Mul(spread, elapsed)
	step.Div(step, duration)
	return step.Add(step, minFee)
}

// GetFeeMultiplier returns the fraction of traded value retained after the
// time-decayed fee, scaled by 1e18.
func GetFeeMultiplier(openTime, closeTime, txTime uint64, minFee, maxFee *uint256.Int) *uint256.Int {
	fee := GetFeeNumerator(openTime, closeTime, txTime, minFee, maxFee)
	if fee.Gt(shared.One) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(shared.One, fee)
}
