package market

import (
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/krazyTry/igain-go/shared"
)

// Mint deposits amountIn base and mints amountIn of both A and B. The
// reserves are left as they are.
func (m *Market) Mint(owner solana.PublicKey, amountIn *uint256.Int) (*uint256.Int, error) {
	q, err := m.execute(owner, QuoteParams{Operation: shared.OperationMint, AmountIn: amountIn}, nil, nil,
		func(b *batch, q *Quote) error {
			if err := m.pullBase(b, owner, q.AmountIn); err != nil {
				return err
			}
			if err := b.mint(m.tokens.A, owner, q.AmountOut); err != nil {
				return err
			}
			return b.mint(m.tokens.B, owner, q.AmountOut)
		})
	if err != nil {
		return nil, err
	}
	return q.AmountOut, nil
}

// MintA deposits amountIn base and returns the A minted. It fails with
// ErrSlippageDetected when that is below minAmountOut.
func (m *Market) MintA(owner solana.PublicKey, amountIn, minAmountOut *uint256.Int) (*uint256.Int, error) {
	return m.mintSingle(owner, shared.SideA, QuoteParams{Operation: shared.OperationMintA, AmountIn: amountIn}, minOut(minAmountOut))
}

func (m *Market) MintB(owner solana.PublicKey, amountIn, minAmountOut *uint256.Int) (*uint256.Int, error) {
	return m.mintSingle(owner, shared.SideB, QuoteParams{Operation: shared.OperationMintB, AmountIn: amountIn}, minOut(minAmountOut))
}

// MintExactA mints exactly amountOut A for the smallest base deposit and
// returns that deposit. It fails with ErrSlippageDetected when the deposit
// exceeds maxAmountIn.
func (m *Market) MintExactA(owner solana.PublicKey, amountOut, maxAmountIn *uint256.Int) (*uint256.Int, error) {
	return m.mintSingle(owner, shared.SideA, QuoteParams{Operation: shared.OperationMintExactA, AmountOut: amountOut}, maxIn(maxAmountIn))
}

func (m *Market) MintExactB(owner solana.PublicKey, amountOut, maxAmountIn *uint256.Int) (*uint256.Int, error) {
	return m.mintSingle(owner, shared.SideB, QuoteParams{Operation: shared.OperationMintExactB, AmountOut: amountOut}, maxIn(maxAmountIn))
}

// mintSingle returns the realized amount: the tokens minted for the plain
// mints and the base paid for the exact ones.
func (m *Market) mintSingle(owner solana.PublicKey, side shared.Side, p QuoteParams, bound func(*Quote) error) (*uint256.Int, error) {
	q, err := m.execute(owner, p, nil, bound, func(b *batch, q *Quote) error {
		if err := m.pullBase(b, owner, q.AmountIn); err != nil {
			return err
		}
		return b.mint(m.tokenOf(side), owner, q.AmountOut)
	})
	if err != nil {
		return nil, err
	}
	if p.AmountOut != nil {
		return q.AmountIn, nil
	}
	return q.AmountOut, nil
}

func (m *Market) tokenOf(side shared.Side) solana.PublicKey {
	if side == shared.SideA {
		return m.tokens.A
	}
	return m.tokens.B
}

// pullBase moves amount of the base asset from owner into the market vault.
func (m *Market) pullBase(b *batch, owner solana.PublicKey, amount *uint256.Int) error {
	if err := b.requireBalance(m.baseToken, owner, amount); err != nil {
		return err
	}
	return b.transfer(m.baseToken, owner, m.id, amount)
}

// pushBase pays amount of the base asset out of the market vault.
func (m *Market) pushBase(b *batch, owner solana.PublicKey, amount *uint256.Int) error {
	return b.transfer(m.baseToken, m.id, owner, amount)
}
