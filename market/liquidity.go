package market

import (
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/krazyTry/igain-go/shared"
)

// MintLP deposits amountIn base into both reserves and returns the LP minted.
func (m *Market) MintLP(owner solana.PublicKey, amountIn, minAmountOut *uint256.Int) (*uint256.Int, error) {
	q, err := m.execute(owner, QuoteParams{Operation: shared.OperationMintLP, AmountIn: amountIn}, nil, minOut(minAmountOut),
		func(b *batch, q *Quote) error {
			if err := m.pullBase(b, owner, q.AmountIn); err != nil {
				return err
			}
			return b.mint(m.tokens.LP, owner, q.AmountOut)
		})
	if err != nil {
		return nil, err
	}
	return q.AmountOut, nil
}

// BurnLP redeems lp shares for base taken out of both reserves.
func (m *Market) BurnLP(owner solana.PublicKey, lp, minAmountOut *uint256.Int) (*uint256.Int, error) {
	precheck := func() error { return m.holds(m.tokens.LP, owner, lp) }
	q, err := m.execute(owner, QuoteParams{Operation: shared.OperationBurnLP, AmountIn: lp}, precheck, minOut(minAmountOut),
		func(b *batch, q *Quote) error {
			if err := b.burn(m.tokens.LP, owner, q.AmountIn); err != nil {
				return err
			}
			return m.pushBase(b, owner, q.AmountOut)
		})
	if err != nil {
		return nil, err
	}
	return q.AmountOut, nil
}

// DepositLP offers up to amountA of A and amountB of B without a fee. The LP
// minted follows the smaller proportional leg and only the legs matching the
// current reserve ratio are taken; the rest stays with the owner.
func (m *Market) DepositLP(owner solana.PublicKey, amountA, amountB, minLP *uint256.Int) (*uint256.Int, error) {
	p := QuoteParams{Operation: shared.OperationDepositLP, AmountA: amountA, AmountB: amountB}
	precheck := func() error {
		if err := m.holds(m.tokens.A, owner, amountA); err != nil {
			return err
		}
		return m.holds(m.tokens.B, owner, amountB)
	}
	q, err := m.execute(owner, p, precheck, minOut(minLP), func(b *batch, q *Quote) error {
		if err := b.burn(m.tokens.A, owner, q.AmountA); err != nil {
			return err
		}
		if err := b.burn(m.tokens.B, owner, q.AmountB); err != nil {
			return err
		}
		return b.mint(m.tokens.LP, owner, q.AmountOut)
	})
	if err != nil {
		return nil, err
	}
	return q.AmountOut, nil
}

// WithdrawLP takes amountA of A and amountB of B out of the reserves and
// returns the LP burned for them, failing with ErrSlippageDetected above maxLP.
func (m *Market) WithdrawLP(owner solana.PublicKey, amountA, amountB, maxLP *uint256.Int) (*uint256.Int, error) {
	p := QuoteParams{Operation: shared.OperationWithdrawLP, AmountA: amountA, AmountB: amountB}
	q, err := m.execute(owner, p, nil, maxIn(maxLP), func(b *batch, q *Quote) error {
		if err := b.requireBalance(m.tokens.LP, owner, q.AmountIn); err != nil {
			return err
		}
		if err := b.burn(m.tokens.LP, owner, q.AmountIn); err != nil {
			return err
		}
		if err := b.mint(m.tokens.A, owner, q.AmountA); err != nil {
			return err
		}
		return b.mint(m.tokens.B, owner, q.AmountB)
	})
	if err != nil {
		return nil, err
	}
	return q.AmountIn, nil
}
