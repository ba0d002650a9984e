package market

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/krazyTry/igain-go/ledger"
	"github.com/krazyTry/igain-go/math"
	"github.com/krazyTry/igain-go/shared"
)

// QuoteParams selects an operation and its amounts. AmountIn is used by
// every operation except the exact mints (AmountOut) and the proportional
// liquidity calls (AmountA, AmountB). A zero Timestamp means now.
type QuoteParams struct {
	Operation shared.Operation
	AmountIn  *uint256.Int
	AmountOut *uint256.Int
	AmountA   *uint256.Int
	AmountB   *uint256.Int
	Timestamp uint64
}

// Quote is an operation priced against the reserves it was quoted on, with
// the reserves it would leave behind.
type Quote struct {
	Operation     shared.Operation `json:"operation"`
	Timestamp     uint64           `json:"timestamp"`
	FeeMultiplier *uint256.Int     `json:"feeMultiplier"`
	AmountIn      *uint256.Int     `json:"amountIn"`
	AmountOut     *uint256.Int     `json:"amountOut"`
	AmountA       *uint256.Int     `json:"amountA,omitempty"`
	AmountB       *uint256.Int     `json:"amountB,omitempty"`
	PoolA         *uint256.Int     `json:"poolA"`
	PoolB         *uint256.Int     `json:"poolB"`
	TotalSupply   *uint256.Int     `json:"totalSupply"`
}

// Quote evaluates an operation without touching reserves or the ledger.
// The trading gate applies at the quoted timestamp.
func (m *Market) Quote(p QuoteParams) (*Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := p.Timestamp
	if now == 0 {
		now = m.now()
	}
	if err := m.tradable(now); err != nil {
		return nil, err
	}
	return m.quote(p, now)
}

func (m *Market) quote(p QuoteParams, now uint64) (*Quote, error) {
	q := &Quote{
		Operation:     p.Operation,
		Timestamp:     now,
		FeeMultiplier: m.feeMultiplier(now),
		PoolA:         m.poolA.Clone(),
		PoolB:         m.poolB.Clone(),
		TotalSupply:   m.totalSupply.Clone(),
	}

	var err error
	switch p.Operation {
	case shared.OperationMint:
		err = q.mint(p.AmountIn)
	case shared.OperationBurn:
		err = q.burn(p.AmountIn)
	case shared.OperationMintA:
		err = q.mintSingle(shared.SideA, p.AmountIn)
	case shared.OperationMintB:
		err = q.mintSingle(shared.SideB, p.AmountIn)
	case shared.OperationMintExactA:
		err = q.mintExact(shared.SideA, p.AmountOut)
	case shared.OperationMintExactB:
		err = q.mintExact(shared.SideB, p.AmountOut)
	case shared.OperationBurnA:
		err = q.burnSingle(shared.SideA, p.AmountIn)
	case shared.OperationBurnB:
		err = q.burnSingle(shared.SideB, p.AmountIn)
	case shared.OperationSwapAtoB:
		err = q.swap(shared.SideA, p.AmountIn)
	case shared.OperationSwapBtoA:
		err = q.swap(shared.SideB, p.AmountIn)
	case shared.OperationMintLP:
		err = q.mintLP(p.AmountIn)
	case shared.OperationBurnLP:
		err = q.burnLP(p.AmountIn)
	case shared.OperationDepositLP:
		err = q.depositLP(p.AmountA, p.AmountB)
	case shared.OperationWithdrawLP:
		err = q.withdrawLP(p.AmountA, p.AmountB)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownOperation, p.Operation)
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

func positive(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	return nil
}

func orZero(amount *uint256.Int) *uint256.Int {
	if amount == nil {
		return new(uint256.Int)
	}
	return amount
}

// curveError maps a math failure onto the caller-facing error set.
func curveError(err error) error {
	switch {
	case errors.Is(err, math.ErrExceedsSupply):
		return fmt.Errorf("%w: %w", ledger.ErrInsufficientBalance, err)
	case errors.Is(err, math.ErrUnderflow):
		return fmt.Errorf("%w: %w", ErrInsufficientReserve, err)
	default:
		return invariant(err)
	}
}

func (q *Quote) reserve(side shared.Side) *uint256.Int {
	if side == shared.SideA {
		return q.PoolA
	}
	return q.PoolB
}

func (q *Quote) setReserve(side shared.Side, v *uint256.Int) {
	if side == shared.SideA {
		q.PoolA = v
	} else {
		q.PoolB = v
	}
}

// drain removes amount from a reserve, which must stay above zero.
func (q *Quote) drain(side shared.Side, amount *uint256.Int) error {
	r := q.reserve(side)
	if !amount.Lt(r) {
		return fmt.Errorf("%w: %s reserve %s cannot cover %s", ErrInsufficientReserve, side, r.Dec(), amount.Dec())
	}
	q.setReserve(side, new(uint256.Int).Sub(r, amount))
	return nil
}

func (q *Quote) fill(side shared.Side, amount *uint256.Int) error {
	v, err := math.Add(q.reserve(side), amount)
	if err != nil {
		return invariant(err)
	}
	q.setReserve(side, v)
	return nil
}

// mint and burn trade pairs at par against the vault and leave the reserves
// alone.
func (q *Quote) mint(amountIn *uint256.Int) error {
	if err := positive(amountIn); err != nil {
		return err
	}
	q.AmountIn, q.AmountOut = amountIn.Clone(), amountIn.Clone()
	return nil
}

func (q *Quote) burn(amountIn *uint256.Int) error {
	return q.mint(amountIn)
}

// mintSingle deposits amountIn pairs and sells the other leg for more of side.
func (q *Quote) mintSingle(side shared.Side, amountIn *uint256.Int) error {
	if err := positive(amountIn); err != nil {
		return err
	}
	sold, bought := q.reserve(side.Other()), q.reserve(side)
	out, err := math.GetMintOut(amountIn, sold, bought, q.FeeMultiplier)
	if err != nil {
		return curveError(err)
	}
	q.AmountIn, q.AmountOut = amountIn.Clone(), out
	return q.settleMint(side, amountIn, out)
}

// mintExact prices the smallest deposit that mints at least amountOut of side.
func (q *Quote) mintExact(side shared.Side, amountOut *uint256.Int) error {
	if err := positive(amountOut); err != nil {
		return err
	}
	sold, bought := q.reserve(side.Other()), q.reserve(side)
	in, err := math.GetMintAmountIn(amountOut, sold, bought, q.FeeMultiplier)
	if err != nil {
		return curveError(err)
	}
	reached, err := math.GetMintOut(in, sold, bought, q.FeeMultiplier)
	if err != nil {
		return curveError(err)
	}
	if reached.Lt(amountOut) {
		return fmt.Errorf("%w: reachable output %s below %s", ErrSlippageDetected, reached.Dec(), amountOut.Dec())
	}
	q.AmountIn, q.AmountOut = in, amountOut.Clone()
	return q.settleMint(side, in, amountOut)
}

func (q *Quote) settleMint(side shared.Side, in, out *uint256.Int) error {
	bought := new(uint256.Int).Sub(out, in)
	if err := q.drain(side, bought); err != nil {
		return err
	}
	return q.fill(side.Other(), in)
}

// burnSingle sells part of amountIn for the other side and redeems the pairs.
func (q *Quote) burnSingle(side shared.Side, amountIn *uint256.Int) error {
	if err := positive(amountIn); err != nil {
		return err
	}
	out, err := math.GetBurnOut(amountIn, q.reserve(side), q.reserve(side.Other()), q.FeeMultiplier)
	if err != nil {
		return curveError(err)
	}
	q.AmountIn, q.AmountOut = amountIn.Clone(), out
	if err := q.drain(side.Other(), out); err != nil {
		return err
	}
	return q.fill(side, new(uint256.Int).Sub(amountIn, out))
}

func (q *Quote) swap(from shared.Side, amountIn *uint256.Int) error {
	if err := positive(amountIn); err != nil {
		return err
	}
	out, err := math.GetAmountOut(amountIn, q.reserve(from), q.reserve(from.Other()), q.FeeMultiplier)
	if err != nil {
		return curveError(err)
	}
	q.AmountIn, q.AmountOut = amountIn.Clone(), out
	if err := q.drain(from.Other(), out); err != nil {
		return err
	}
	return q.fill(from, amountIn)
}

func (q *Quote) mintLP(amountIn *uint256.Int) error {
	if err := positive(amountIn); err != nil {
		return err
	}
	out, err := math.GetLPMintOut(amountIn, q.PoolA, q.PoolB, q.TotalSupply, q.FeeMultiplier)
	if err != nil {
		return curveError(err)
	}
	q.AmountIn, q.AmountOut = amountIn.Clone(), out
	if err := q.fill(shared.SideA, amountIn); err != nil {
		return err
	}
	if err := q.fill(shared.SideB, amountIn); err != nil {
		return err
	}
	return q.growSupply(out)
}

func (q *Quote) burnLP(lp *uint256.Int) error {
	if err := positive(lp); err != nil {
		return err
	}
	out, err := math.GetLPBurnOut(lp, q.PoolA, q.PoolB, q.TotalSupply, q.FeeMultiplier)
	if err != nil {
		return curveError(err)
	}
	q.AmountIn, q.AmountOut = lp.Clone(), out
	if err := q.drain(shared.SideA, out); err != nil {
		return err
	}
	if err := q.drain(shared.SideB, out); err != nil {
		return err
	}
	return q.shrinkSupply(lp)
}

// depositLP reports the LP minted as AmountOut and the legs actually taken as
// AmountA and AmountB. AmountIn stays zero.
func (q *Quote) depositLP(amountA, amountB *uint256.Int) error {
	amountA, amountB = orZero(amountA), orZero(amountB)
	if amountA.IsZero() || amountB.IsZero() {
		return ErrInvalidAmount
	}
	lp, err := math.GetDepositLPOut(amountA, amountB, q.PoolA, q.PoolB, q.TotalSupply)
	if err != nil {
		return curveError(err)
	}
	if lp.IsZero() {
		return fmt.Errorf("%w: deposit too small to mint LP", ErrInvalidAmount)
	}
	legA, legB, err := math.GetLPLegs(lp, q.PoolA, q.PoolB, q.TotalSupply, shared.RoundingUp)
	if err != nil {
		return curveError(err)
	}
	q.AmountIn, q.AmountOut = new(uint256.Int), lp
	q.AmountA, q.AmountB = legA, legB
	if err := q.fill(shared.SideA, legA); err != nil {
		return err
	}
	if err := q.fill(shared.SideB, legB); err != nil {
		return err
	}
	return q.growSupply(lp)
}

// withdrawLP quotes AmountIn as the LP burned.
func (q *Quote) withdrawLP(amountA, amountB *uint256.Int) error {
	amountA, amountB = orZero(amountA), orZero(amountB)
	if amountA.IsZero() && amountB.IsZero() {
		return ErrInvalidAmount
	}
	lp, err := math.GetWithdrawLPIn(amountA, amountB, q.PoolA, q.PoolB, q.TotalSupply)
	if err != nil {
		return curveError(err)
	}
	q.AmountIn, q.AmountOut = lp, new(uint256.Int)
	q.AmountA, q.AmountB = amountA.Clone(), amountB.Clone()
	if err := q.drain(shared.SideA, amountA); err != nil {
		return err
	}
	if err := q.drain(shared.SideB, amountB); err != nil {
		return err
	}
	return q.shrinkSupply(lp)
}

func (q *Quote) growSupply(lp *uint256.Int) error {
	v, err := math.Add(q.TotalSupply, lp)
	if err != nil {
		return invariant(err)
	}
	q.TotalSupply = v
	return nil
}

func (q *Quote) shrinkSupply(lp *uint256.Int) error {
	if !lp.Lt(q.TotalSupply) {
		return fmt.Errorf("%w: %s of %s LP outstanding", ErrInsufficientReserve, lp.Dec(), q.TotalSupply.Dec())
	}
	q.TotalSupply = new(uint256.Int).Sub(q.TotalSupply, lp)
	return nil
}
