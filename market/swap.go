package market

import (
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/krazyTry/igain-go/shared"
)

func (m *Market) SwapAtoB(owner solana.PublicKey, amountIn, minAmountOut *uint256.Int) (*uint256.Int, error) {
	return m.swap(owner, shared.SideA, QuoteParams{Operation: shared.OperationSwapAtoB, AmountIn: amountIn}, minAmountOut)
}

func (m *Market) SwapBtoA(owner solana.PublicKey, amountIn, minAmountOut *uint256.Int) (*uint256.Int, error) {
	return m.swap(owner, shared.SideB, QuoteParams{Operation: shared.OperationSwapBtoA, AmountIn: amountIn}, minAmountOut)
}

// swap burns amountIn of from and mints the other side; no base moves.
func (m *Market) swap(owner solana.PublicKey, from shared.Side, p QuoteParams, minAmountOut *uint256.Int) (*uint256.Int, error) {
	precheck := func() error { return m.holds(m.tokenOf(from), owner, p.AmountIn) }
	q, err := m.execute(owner, p, precheck, minOut(minAmountOut), func(b *batch, q *Quote) error {
		if err := b.burn(m.tokenOf(from), owner, q.AmountIn); err != nil {
			return err
		}
		return b.mint(m.tokenOf(from.Other()), owner, q.AmountOut)
	})
	if err != nil {
		return nil, err
	}
	return q.AmountOut, nil
}
