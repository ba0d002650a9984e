package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/krazyTry/igain-go/decimal_math"
	"github.com/krazyTry/igain-go/ledger"
	"github.com/krazyTry/igain-go/math"
	"github.com/krazyTry/igain-go/shared"
)

const maxUint64 = ^uint64(0)

// Market is a dual-token bonding-curve market for a single epoch. Every
// public method is serialized and reads the clock once.
type Market struct {
	mu sync.Mutex

	ledger     ledger.Ledger
	yield      YieldSource
	settlement Settlement
	clock      Clock
	logger     *zap.Logger
	registerer prometheus.Registerer
	metrics    *metrics

	id          solana.PublicKey
	baseToken   solana.PublicKey
	yieldSource solana.PublicKey
	asset       solana.PublicKey
	treasury    solana.PublicKey
	name        string
	tokens      Tokens

	state     shared.State
	openTime  uint64
	closeTime uint64
	minFee    *uint256.Int
	maxFee    *uint256.Int
	leverage  *uint256.Int

	poolA       *uint256.Int
	poolB       *uint256.Int
	totalSupply *uint256.Int

	openIndex *uint256.Int
	payoutA   *uint256.Int
	payoutB   *uint256.Int
}

// New creates an uninitialized market. Trading fails with ErrCannotTrade
// until Init succeeds.
func New(l ledger.Ledger, yield YieldSource, opts ...Option) *Market {
	m := &Market{
		ledger:      l,
		yield:       yield,
		settlement:  LeveragedYieldSettlement{},
		clock:       ClockFunc(time.Now),
		logger:      zap.NewNop(),
		minFee:      new(uint256.Int),
		maxFee:      new(uint256.Int),
		leverage:    new(uint256.Int),
		poolA:       new(uint256.Int),
		poolB:       new(uint256.Int),
		totalSupply: new(uint256.Int),
		openIndex:   new(uint256.Int),
		payoutA:     new(uint256.Int),
		payoutB:     new(uint256.Int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// InitParams configures a market. Nil fees fall back to the defaults.
type InitParams struct {
	BaseToken   solana.PublicKey
	YieldSource solana.PublicKey
	Asset       solana.PublicKey
	Treasury    solana.PublicKey
	Name        string
	Leverage    *uint256.Int
	Duration    uint64
	SeedA       *uint256.Int
	SeedB       *uint256.Int
	MinFee      *uint256.Int
	MaxFee      *uint256.Int
}

func (p *InitParams) Validate() error {
	if p.MinFee == nil {
		p.MinFee = decimal_math.FromBps(shared.DefaultMinFeeBps)
	}
	if p.MaxFee == nil {
		p.MaxFee = decimal_math.FromBps(shared.DefaultMaxFeeBps)
	}
	switch {
	case len(p.Name) == 0 || len(p.Name) > shared.MaxSeedLength:
		return fmt.Errorf("%w: name must be 1..%d bytes", ErrInvalidConfig, shared.MaxSeedLength)
	case p.Leverage == nil || p.Leverage.IsZero():
		return fmt.Errorf("%w: leverage must be greater than 0", ErrInvalidConfig)
	case p.Duration == 0:
		return fmt.Errorf("%w: duration must be greater than 0", ErrInvalidConfig)
	case p.SeedA == nil || p.SeedA.IsZero() || p.SeedB == nil || p.SeedB.IsZero():
		return fmt.Errorf("%w: seed reserves must be greater than 0", ErrInvalidConfig)
	}
	if err := math.ValidateFees(p.MinFee, p.MaxFee); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Init opens the epoch: it creates the A, B and LP ledgers, seeds the
// reserves from the initializer's base asset and records the yield index.
// The initializer pays max(seedA, seedB), receives sqrt(seedA*seedB) LP and
// the unpaired surplus of the smaller seed's token.
func (m *Market) Init(ctx context.Context, initializer solana.PublicKey, p InitParams) (tokens Tokens, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.observe(shared.OperationInit, err) }()

	if m.state != shared.StateUninitialized {
		return Tokens{}, ErrAlreadyInitialized
	}
	if err := p.Validate(); err != nil {
		return Tokens{}, err
	}

	id, err := DeriveMarketAddress(p.BaseToken, p.Asset, p.Name)
	if err != nil {
		return Tokens{}, err
	}
	tokens, err = DeriveTokenAddresses(id)
	if err != nil {
		return Tokens{}, err
	}

	openIndex, err := m.yield.NormalizedIncome(ctx, p.Asset)
	if err != nil {
		return Tokens{}, fmt.Errorf("read yield index: %w", err)
	}
	if openIndex.IsZero() {
		return Tokens{}, fmt.Errorf("%w: yield index is zero", ErrInvalidConfig)
	}

	deposit := math.Max(p.SeedA, p.SeedB)
	lp, err := math.GetInitialLiquidity(p.SeedA, p.SeedB)
	if err != nil {
		return Tokens{}, invariant(err)
	}

	now := m.now()
	if p.Duration > maxUint64-now {
		return Tokens{}, fmt.Errorf("%w: duration %d overflows the close time", ErrInvalidConfig, p.Duration)
	}

	b := newBatch(m.ledger)
	if err := b.requireBalance(p.BaseToken, initializer, deposit); err != nil {
		return Tokens{}, err
	}
	for _, tok := range []ledger.Token{
		{Mint: tokens.A, Name: "iGain A token " + p.Name, Symbol: "iG-A " + p.Name, Decimals: shared.Decimals},
		{Mint: tokens.B, Name: "iGain B token " + p.Name, Symbol: "iG-B " + p.Name, Decimals: shared.Decimals},
		{Mint: tokens.LP, Name: "iGain LP token " + p.Name, Symbol: "iG-LP " + p.Name, Decimals: shared.Decimals},
	} {
		if err := m.createToken(tok); err != nil {
			return Tokens{}, err
		}
	}
	if err := b.transfer(p.BaseToken, initializer, id, deposit); err != nil {
		return Tokens{}, b.rollback(err)
	}
	if err := b.mint(tokens.A, initializer, new(uint256.Int).Sub(deposit, p.SeedA)); err != nil {
		return Tokens{}, b.rollback(err)
	}
	if err := b.mint(tokens.B, initializer, new(uint256.Int).Sub(deposit, p.SeedB)); err != nil {
		return Tokens{}, b.rollback(err)
	}
	if err := b.mint(tokens.LP, initializer, lp); err != nil {
		return Tokens{}, b.rollback(err)
	}

	m.id = id
	m.tokens = tokens
	m.baseToken = p.BaseToken
	m.yieldSource = p.YieldSource
	m.asset = p.Asset
	m.treasury = p.Treasury
	m.name = p.Name
	m.leverage = p.Leverage.Clone()
	m.minFee = p.MinFee.Clone()
	m.maxFee = p.MaxFee.Clone()
	m.openTime = now
	m.closeTime = now + p.Duration
	m.poolA = p.SeedA.Clone()
	m.poolB = p.SeedB.Clone()
	m.totalSupply = lp
	m.openIndex = openIndex
	m.state = shared.StateOpen
	m.enableMetrics()

	m.logger.Info("market opened",
		zap.Stringer("market", m.id),
		zap.String("name", m.name),
		zap.Uint64("openTime", m.openTime),
		zap.Uint64("closeTime", m.closeTime),
		zap.String("poolA", m.poolA.Dec()),
		zap.String("poolB", m.poolB.Dec()),
		zap.String("leverage", m.leverage.Dec()),
	)
	return tokens, nil
}

// createToken registers tok with the ledger. A token left behind by an
// earlier Init that failed before minting has no supply and is reused.
func (m *Market) createToken(tok ledger.Token) error {
	err := m.ledger.CreateToken(tok)
	if !errors.Is(err, ledger.ErrTokenExists) {
		return err
	}
	if !m.ledger.TotalSupply(tok.Mint).IsZero() {
		return fmt.Errorf("%w: %w", ErrAlreadyInitialized, err)
	}
	return nil
}

func (m *Market) enableMetrics() {
	if m.registerer == nil || m.metrics != nil {
		return
	}
	mt, err := newMetrics(m.registerer, m.id.String())
	if err != nil {
		m.logger.Warn("metrics disabled", zap.Stringer("market", m.id), zap.Error(err))
		return
	}
	m.metrics = mt
}

func (m *Market) now() uint64 {
	ts := m.clock.Now().Unix()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// tradable gates every mint, burn, swap and liquidity call.
func (m *Market) tradable(now uint64) error {
	if m.state != shared.StateOpen {
		return ErrCannotTrade
	}
	if now >= m.closeTime {
		return ErrNotOpen
	}
	return nil
}

func (m *Market) feeMultiplier(now uint64) *uint256.Int {
	return math.GetFeeMultiplier(m.openTime, m.closeTime, now, m.minFee, m.maxFee)
}

func (m *Market) ID() solana.PublicKey {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

func (m *Market) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

func (m *Market) Tokens() Tokens {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens
}

func (m *Market) BaseToken() solana.PublicKey {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseToken
}

func (m *Market) YieldSource() solana.PublicKey {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.yieldSource
}

func (m *Market) Asset() solana.PublicKey {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.asset
}

func (m *Market) Treasury() solana.PublicKey {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.treasury
}

func (m *Market) State() shared.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Market) OpenTime() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openTime
}

func (m *Market) CloseTime() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeTime
}

func (m *Market) MinFee() *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.minFee.Clone()
}

func (m *Market) MaxFee() *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxFee.Clone()
}

func (m *Market) Leverage() *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leverage.Clone()
}

func (m *Market) PoolA() *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.poolA.Clone()
}

func (m *Market) PoolB() *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.poolB.Clone()
}

func (m *Market) TotalSupply() *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalSupply.Clone()
}

// FeeMultiplier is the fraction of value retained by a trade made now.
func (m *Market) FeeMultiplier() *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.feeMultiplier(m.now())
}

// Payouts returns the per-unit settlement of A and B; both are zero until Close.
func (m *Market) Payouts() (payoutA, payoutB *uint256.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payoutA.Clone(), m.payoutB.Clone()
}
