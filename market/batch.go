package market

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/krazyTry/igain-go/ledger"
)

// batch applies ledger movements for one call and undoes them in reverse
// order if a later movement fails.
type batch struct {
	ledger ledger.Ledger
	undo   []func() error
}

func newBatch(l ledger.Ledger) *batch {
	return &batch{ledger: l}
}

func (b *batch) mint(mint, to solana.PublicKey, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if err := b.ledger.Mint(mint, to, amount); err != nil {
		return err
	}
	b.undo = append(b.undo, func() error { return b.ledger.Burn(mint, to, amount) })
	return nil
}

func (b *batch) burn(mint, from solana.PublicKey, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if err := b.ledger.Burn(mint, from, amount); err != nil {
		return err
	}
	b.undo = append(b.undo, func() error { return b.ledger.Mint(mint, from, amount) })
	return nil
}

func (b *batch) transfer(mint, from, to solana.PublicKey, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if err := b.ledger.Transfer(mint, from, to, amount); err != nil {
		return err
	}
	b.undo = append(b.undo, func() error { return b.ledger.Transfer(mint, to, from, amount) })
	return nil
}

// requireBalance fails before any movement when owner cannot cover amount.
func (b *batch) requireBalance(mint, owner solana.PublicKey, amount *uint256.Int) error {
	return requireBalance(b.ledger, mint, owner, amount)
}

func requireBalance(l ledger.Ledger, mint, owner solana.PublicKey, amount *uint256.Int) error {
	if bal := l.BalanceOf(mint, owner); bal.Lt(amount) {
		return fmt.Errorf("%w: have %s, need %s", ledger.ErrInsufficientBalance, bal.Dec(), amount.Dec())
	}
	return nil
}

func (b *batch) rollback(cause error) error {
	var errs []error
	for i := len(b.undo) - 1; i >= 0; i-- {
		if err := b.undo[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.undo = nil
	if len(errs) > 0 {
		return fmt.Errorf("%w (rollback failed: %w)", cause, errors.Join(errs...))
	}
	return cause
}
