package market

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/krazyTry/igain-go/math"
	"github.com/krazyTry/igain-go/shared"
)

// Close ends the epoch once closeTime has passed, reads the yield index and
// fixes the per-unit payouts used by Claim.
func (m *Market) Close(ctx context.Context) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.observe(shared.OperationClose, err) }()

	now := m.now()
	switch {
	case m.state != shared.StateOpen:
		return fmt.Errorf("%w: market is %s", ErrNotClosable, m.state)
	case now < m.closeTime:
		return fmt.Errorf("%w: %d seconds before close", ErrNotClosable, m.closeTime-now)
	}

	closeIndex, err := m.yield.NormalizedIncome(ctx, m.asset)
	if err != nil {
		return fmt.Errorf("read yield index: %w", err)
	}
	accrued, err := YieldAccrued(m.openIndex, closeIndex)
	if err != nil {
		return invariant(err)
	}
	payoutA, payoutB, err := m.settlement.ComputeSettlement(m.poolA.Clone(), m.poolB.Clone(), m.leverage.Clone(), accrued)
	if err != nil {
		return fmt.Errorf("compute settlement: %w", err)
	}
	if payoutA == nil || payoutB == nil {
		return fmt.Errorf("compute settlement: %w", ErrInvalidAmount)
	}

	m.payoutA = payoutA
	m.payoutB = payoutB
	m.state = shared.StateClosed

	m.logger.Info("market closed",
		zap.Stringer("market", m.id),
		zap.String("closeIndex", closeIndex.Dec()),
		zap.String("yieldAccrued", accrued.Dec()),
		zap.String("payoutA", payoutA.Dec()),
		zap.String("payoutB", payoutB.Dec()),
	)
	return nil
}

// Claim burns the owner's whole A, B and LP balances and pays them out in
// base at the settled prices. LP is valued as its pro-rata share of both
// reserves. The payout is capped by what the vault still holds.
func (m *Market) Claim(ctx context.Context, owner solana.PublicKey) (payout *uint256.Int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.observe(shared.OperationClaim, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.state != shared.StateClosed {
		return nil, fmt.Errorf("%w: market is %s", ErrNotClaimable, m.state)
	}

	a := m.ledger.BalanceOf(m.tokens.A, owner)
	b := m.ledger.BalanceOf(m.tokens.B, owner)
	lp := m.ledger.BalanceOf(m.tokens.LP, owner)

	shareA, shareB := new(uint256.Int), new(uint256.Int)
	if !lp.IsZero() && !m.totalSupply.IsZero() {
		if shareA, err = math.MulDiv(m.poolA, lp, m.totalSupply, shared.RoundingDown); err != nil {
			return nil, invariant(err)
		}
		if shareB, err = math.MulDiv(m.poolB, lp, m.totalSupply, shared.RoundingDown); err != nil {
			return nil, invariant(err)
		}
	}

	valueA, err := math.MulDiv(new(uint256.Int).Add(a, shareA), m.payoutA, shared.One, shared.RoundingDown)
	if err != nil {
		return nil, invariant(err)
	}
	valueB, err := math.MulDiv(new(uint256.Int).Add(b, shareB), m.payoutB, shared.One, shared.RoundingDown)
	if err != nil {
		return nil, invariant(err)
	}
	payout, err = math.Add(valueA, valueB)
	if err != nil {
		return nil, invariant(err)
	}
	if vault := m.ledger.BalanceOf(m.baseToken, m.id); payout.Gt(vault) {
		payout = vault
	}

	nextPoolA, err := math.Sub(m.poolA, shareA)
	if err != nil {
		return nil, invariant(err)
	}
	nextPoolB, err := math.Sub(m.poolB, shareB)
	if err != nil {
		return nil, invariant(err)
	}
	nextSupply, err := math.Sub(m.totalSupply, lp)
	if err != nil {
		return nil, invariant(err)
	}

	bt := newBatch(m.ledger)
	if err := bt.burn(m.tokens.A, owner, a); err != nil {
		return nil, bt.rollback(err)
	}
	if err := bt.burn(m.tokens.B, owner, b); err != nil {
		return nil, bt.rollback(err)
	}
	if err := bt.burn(m.tokens.LP, owner, lp); err != nil {
		return nil, bt.rollback(err)
	}
	if err := m.pushBase(bt, owner, payout); err != nil {
		return nil, bt.rollback(err)
	}

	m.poolA = nextPoolA
	m.poolB = nextPoolB
	m.totalSupply = nextSupply

	m.logger.Info("claimed",
		zap.Stringer("market", m.id),
		zap.Stringer("owner", owner),
		zap.String("a", a.Dec()),
		zap.String("b", b.Dec()),
		zap.String("lp", lp.Dec()),
		zap.String("payout", payout.Dec()),
	)
	return payout, nil
}
