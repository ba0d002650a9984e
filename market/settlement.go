package market

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/krazyTry/igain-go/math"
	"github.com/krazyTry/igain-go/shared"
)

// YieldSource reports the accrual index of the external yield-bearing asset.
// The index only needs to be comparable across open and close.
type YieldSource interface {
	NormalizedIncome(ctx context.Context, asset solana.PublicKey) (*uint256.Int, error)
}

// Settlement turns the accrued yield into per-unit payouts (1e18 scale) for
// A and B holders once the epoch has closed.
type Settlement interface {
	ComputeSettlement(poolA, poolB, leverage, yieldAccrued *uint256.Int) (payoutA, payoutB *uint256.Int, err error)
}

var _ Settlement = LeveragedYieldSettlement{}

// LeveragedYieldSettlement pays B the accrued yield amplified by leverage,
// capped at one unit, and A the remainder:
//
//	payoutB = min(1e18, leverage * yieldAccrued / 1e18)
//	payoutA = 1e18 - payoutB
type LeveragedYieldSettlement struct{}

func (LeveragedYieldSettlement) ComputeSettlement(_, _, leverage, yieldAccrued *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	payoutB, err := math.MulDiv(leverage, yieldAccrued, shared.One, shared.RoundingDown)
	if err != nil {
		return nil, nil, err
	}
	if payoutB.Gt(shared.One) {
		payoutB = shared.One.Clone()
	}
	payoutA := new(uint256.Int).Sub(shared.One, payoutB)
	return payoutA, payoutB, nil
}

// YieldAccrued is closeIndex/openIndex - 1 in 1e18 scale, zero if the index fell.
func YieldAccrued(openIndex, closeIndex *uint256.Int) (*uint256.Int, error) {
	ratio, err := math.MulDiv(closeIndex, shared.One, openIndex, shared.RoundingDown)
	if err != nil {
		return nil, err
	}
	if !ratio.Gt(shared.One) {
		return new(uint256.Int), nil
	}
	return ratio.Sub(ratio, shared.One), nil
}

var _ YieldSource = (*StaticYieldSource)(nil)

// StaticYieldSource is a YieldSource whose index is set by hand.
type StaticYieldSource struct {
	mu    sync.RWMutex
	index map[solana.PublicKey]*uint256.Int
}

func NewStaticYieldSource() *StaticYieldSource {
	return &StaticYieldSource{index: make(map[solana.PublicKey]*uint256.Int)}
}

func (s *StaticYieldSource) SetIndex(asset solana.PublicKey, index *uint256.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index[asset] = index.Clone()
}

// NormalizedIncome returns the index set for asset, 1e18 if none was set.
func (s *StaticYieldSource) NormalizedIncome(_ context.Context, asset solana.PublicKey) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.index[asset]; ok {
		return v.Clone(), nil
	}
	return shared.One.Clone(), nil
}
