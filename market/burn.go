package market

import (
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/krazyTry/igain-go/shared"
)

// Burn redeems amountIn pairs of A and B for amountIn base out of the vault.
// The reserves are left as they are.
func (m *Market) Burn(owner solana.PublicKey, amountIn *uint256.Int) (*uint256.Int, error) {
	precheck := func() error {
		if err := m.holds(m.tokens.A, owner, amountIn); err != nil {
			return err
		}
		return m.holds(m.tokens.B, owner, amountIn)
	}
	q, err := m.execute(owner, QuoteParams{Operation: shared.OperationBurn, AmountIn: amountIn}, precheck, nil,
		func(b *batch, q *Quote) error {
			if err := b.burn(m.tokens.A, owner, q.AmountIn); err != nil {
				return err
			}
			if err := b.burn(m.tokens.B, owner, q.AmountIn); err != nil {
				return err
			}
			return m.pushBase(b, owner, q.AmountOut)
		})
	if err != nil {
		return nil, err
	}
	return q.AmountOut, nil
}

// BurnA sells part of amountIn A for B, redeems the resulting pairs and
// returns the base paid out.
func (m *Market) BurnA(owner solana.PublicKey, amountIn, minAmountOut *uint256.Int) (*uint256.Int, error) {
	return m.burnSingle(owner, shared.SideA, QuoteParams{Operation: shared.OperationBurnA, AmountIn: amountIn}, minAmountOut)
}

func (m *Market) BurnB(owner solana.PublicKey, amountIn, minAmountOut *uint256.Int) (*uint256.Int, error) {
	return m.burnSingle(owner, shared.SideB, QuoteParams{Operation: shared.OperationBurnB, AmountIn: amountIn}, minAmountOut)
}

func (m *Market) burnSingle(owner solana.PublicKey, side shared.Side, p QuoteParams, minAmountOut *uint256.Int) (*uint256.Int, error) {
	precheck := func() error { return m.holds(m.tokenOf(side), owner, p.AmountIn) }
	q, err := m.execute(owner, p, precheck, minOut(minAmountOut), func(b *batch, q *Quote) error {
		if err := b.burn(m.tokenOf(side), owner, q.AmountIn); err != nil {
			return err
		}
		return m.pushBase(b, owner, q.AmountOut)
	})
	if err != nil {
		return nil, err
	}
	return q.AmountOut, nil
}
