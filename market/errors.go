package market

import (
	"errors"
	"fmt"
)

var (
	// ErrCannotTrade is returned by every trading call outside the Open state.
	ErrCannotTrade = errors.New("cannot buy")
	// ErrNotOpen is returned once closeTime has passed but close has not run yet.
	ErrNotOpen = fmt.Errorf("%w: trading window has elapsed", ErrCannotTrade)

	ErrNotClosable        = errors.New("not closable")
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrSlippageDetected   = errors.New("SLIPPAGE_DETECTED")
	ErrNotClaimable       = errors.New("not claimable")

	ErrInsufficientReserve = errors.New("insufficient reserve")
	ErrInvalidAmount       = errors.New("amount must be greater than 0")
	ErrInvalidConfig       = errors.New("invalid market config")
	ErrUnknownOperation    = errors.New("unknown operation")

	// ErrInvariantViolation wraps arithmetic failures that can only come from
	// corrupted reserves; the call is aborted without any state change.
	ErrInvariantViolation = errors.New("invariant violation")
)

func invariant(err error) error {
	return fmt.Errorf("%w: %w", ErrInvariantViolation, err)
}
