package market

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// execute runs one trading call: gate, caller precheck, quote, bound check,
// ledger movements, then the reserve commit. Nothing is committed unless every
// movement succeeds.
func (m *Market) execute(owner solana.PublicKey, p QuoteParams, precheck func() error, bound func(*Quote) error, move func(*batch, *Quote) error) (q *Quote, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.observe(p.Operation, err) }()

	now := m.now()
	if err := m.tradable(now); err != nil {
		return nil, err
	}
	if precheck != nil {
		if err := precheck(); err != nil {
			return nil, err
		}
	}
	q, err = m.quote(p, now)
	if err != nil {
		if errors.Is(err, ErrInvariantViolation) {
			m.logger.Error("invariant violation", zap.String("op", string(p.Operation)), zap.Error(err))
		}
		return nil, err
	}
	if bound != nil {
		if err := bound(q); err != nil {
			return nil, err
		}
	}

	b := newBatch(m.ledger)
	if err := move(b, q); err != nil {
		return nil, b.rollback(err)
	}

	m.poolA = q.PoolA
	m.poolB = q.PoolB
	m.totalSupply = q.TotalSupply

	m.logger.Debug("market operation",
		zap.String("op", string(p.Operation)),
		zap.Stringer("owner", owner),
		zap.String("amountIn", q.AmountIn.Dec()),
		zap.String("amountOut", q.AmountOut.Dec()),
		zap.String("fee", q.FeeMultiplier.Dec()),
	)
	return q, nil
}

// holds fails with ledger.ErrInsufficientBalance unless owner has amount of
// mint. A nil amount is left for the quote to reject.
func (m *Market) holds(mint, owner solana.PublicKey, amount *uint256.Int) error {
	return requireBalance(m.ledger, mint, owner, orZero(amount))
}

// minOut rejects quotes paying out less than limit. A nil limit accepts any output.
func minOut(limit *uint256.Int) func(*Quote) error {
	return func(q *Quote) error {
		if limit != nil && q.AmountOut.Lt(limit) {
			return fmt.Errorf("%w: out %s below minimum %s", ErrSlippageDetected, q.AmountOut.Dec(), limit.Dec())
		}
		return nil
	}
}

// maxIn rejects quotes charging more than limit. A nil limit accepts any input.
func maxIn(limit *uint256.Int) func(*Quote) error {
	return func(q *Quote) error {
		if limit != nil && q.AmountIn.Gt(limit) {
			return fmt.Errorf("%w: in %s above maximum %s", ErrSlippageDetected, q.AmountIn.Dec(), limit.Dec())
		}
		return nil
	}
}
