package market

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/krazyTry/igain-go/ledger"
	"github.com/krazyTry/igain-go/shared"
)

const (
	testOpenTime = int64(1_700_000_000)
	testDuration = uint64(86400)
)

var (
	testBaseToken = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	testAsset     = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	testYield     = solana.MustPublicKeyFromBase58("KLend2g3cP87fffoy8q1mQqGKjrxjC8boSyAYavgmjD")
	testTreasury  = solana.MustPublicKeyFromBase58("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) set(ts int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = time.Unix(ts, 0)
}

type fixture struct {
	market *Market
	ledger *ledger.Memory
	yield  *StaticYieldSource
	clock  *testClock
	alice  solana.PublicKey
	bob    solana.PublicKey
}

func units(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), shared.One)
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	r := require.New(t)

	l := ledger.NewMemory()
	r.NoError(l.CreateToken(ledger.Token{Mint: testBaseToken, Name: "USD Coin", Symbol: "USDC", Decimals: shared.Decimals}))

	f := &fixture{
		ledger: l,
		yield:  NewStaticYieldSource(),
		clock:  &testClock{now: time.Unix(testOpenTime, 0)},
		alice:  solana.NewWallet().PublicKey(),
		bob:    solana.NewWallet().PublicKey(),
	}
	r.NoError(l.Mint(testBaseToken, f.alice, units(10)))
	f.market = New(l, f.yield, append([]Option{WithClock(f.clock)}, opts...)...)
	return f
}

func (f *fixture) params() InitParams {
	return InitParams{
		BaseToken:   testBaseToken,
		YieldSource: testYield,
		Asset:       testAsset,
		Treasury:    testTreasury,
		Name:        "USDC-30d",
		Leverage:    units(10),
		Duration:    testDuration,
		SeedA:       units(1),
		SeedB:       units(1),
		MinFee:      new(uint256.Int),
		MaxFee:      uint256.NewInt(1e16),
	}
}

func (f *fixture) open(t *testing.T) Tokens {
	t.Helper()
	tokens, err := f.market.Init(context.Background(), f.alice, f.params())
	require.NoError(t, err)
	return tokens
}

func TestTradingBeforeInit(t *testing.T) {
	r := require.New(t)
	f := newFixture(t)
	m, owner, one := f.market, f.alice, units(1)

	calls := map[string]func() error{
		"mint":       func() error { _, err := m.Mint(owner, one); return err },
		"burn":       func() error { _, err := m.Burn(owner, one); return err },
		"mintA":      func() error { _, err := m.MintA(owner, one, nil); return err },
		"mintB":      func() error { _, err := m.MintB(owner, one, nil); return err },
		"mintExactA": func() error { _, err := m.MintExactA(owner, one, nil); return err },
		"mintExactB": func() error { _, err := m.MintExactB(owner, one, nil); return err },
		"burnA":      func() error { _, err := m.BurnA(owner, one, nil); return err },
		"burnB":      func() error { _, err := m.BurnB(owner, one, nil); return err },
		"swapAtoB":   func() error { _, err := m.SwapAtoB(owner, one, nil); return err },
		"swapBtoA":   func() error { _, err := m.SwapBtoA(owner, one, nil); return err },
		"mintLP":     func() error { _, err := m.MintLP(owner, one, nil); return err },
		"burnLP":     func() error { _, err := m.BurnLP(owner, one, nil); return err },
		"depositLP":  func() error { _, err := m.DepositLP(owner, new(uint256.Int), new(uint256.Int), new(uint256.Int)); return err },
		"withdrawLP": func() error { _, err := m.WithdrawLP(owner, one, one, nil); return err },
		"quote":      func() error { _, err := m.Quote(QuoteParams{Operation: shared.OperationMintA, AmountIn: one}); return err },
	}
	for name, call := range calls {
		err := call()
		r.ErrorIs(err, ErrCannotTrade, name)
		r.EqualError(err, "cannot buy", name)
	}

	r.ErrorIs(m.Close(context.Background()), ErrNotClosable)
	_, err := m.Claim(context.Background(), owner)
	r.ErrorIs(err, ErrNotClaimable)
	r.Equal(shared.StateUninitialized, m.State())
}

func TestInit(t *testing.T) {
	r := require.New(t)
	f := newFixture(t)
	tokens := f.open(t)
	m := f.market

	r.Equal(shared.StateOpen, m.State())
	r.Equal(uint64(testOpenTime), m.OpenTime())
	r.Equal(uint64(testOpenTime)+testDuration, m.CloseTime())
	r.Equal(units(1), m.PoolA())
	r.Equal(units(1), m.PoolB())
	r.Equal(units(1), m.TotalSupply())
	r.Equal(units(10), m.Leverage())
	r.Equal(uint256.NewInt(1e16), m.MaxFee())
	r.True(m.MinFee().IsZero())
	r.Equal(tokens, m.Tokens())
	r.Equal("USDC-30d", m.Name())
	r.Equal(testTreasury, m.Treasury())
	r.Equal(testYield, m.YieldSource())

	id, err := DeriveMarketAddress(testBaseToken, testAsset, "USDC-30d")
	r.NoError(err)
	r.Equal(id, m.ID())
	derived, err := DeriveTokenAddresses(id)
	r.NoError(err)
	r.Equal(derived, tokens)

	r.Equal(units(1), f.ledger.BalanceOf(testBaseToken, id))
	r.Equal(units(9), f.ledger.BalanceOf(testBaseToken, f.alice))
	r.Equal(units(1), f.ledger.BalanceOf(tokens.LP, f.alice))
	r.True(f.ledger.BalanceOf(tokens.A, f.alice).IsZero())
	r.True(f.ledger.BalanceOf(tokens.B, f.alice).IsZero())

	tok, ok := f.ledger.Token(tokens.A)
	r.True(ok)
	r.Equal("iGain A token USDC-30d", tok.Name)
	r.Equal("iG-A USDC-30d", tok.Symbol)
	tok, ok = f.ledger.Token(tokens.LP)
	r.True(ok)
	r.Equal("iG-LP USDC-30d", tok.Symbol)

	_, err = m.Init(context.Background(), f.alice, f.params())
	r.ErrorIs(err, ErrAlreadyInitialized)
}

func TestInitUnevenSeeds(t *testing.T) {
	r := require.New(t)
	f := newFixture(t)

	p := f.params()
	p.SeedA = units(4)
	p.SeedB = units(1)
	p.MinFee, p.MaxFee = nil, nil
	tokens, err := f.market.Init(context.Background(), f.alice, p)
	r.NoError(err)

	r.Equal(units(6), f.ledger.BalanceOf(testBaseToken, f.alice))
	r.Equal(units(2), f.ledger.BalanceOf(tokens.LP, f.alice))
	r.True(f.ledger.BalanceOf(tokens.A, f.alice).IsZero())
	r.Equal(units(3), f.ledger.BalanceOf(tokens.B, f.alice))
	r.Equal(units(4), f.market.PoolA())
	r.Equal(units(1), f.market.PoolB())

	// defaults: 0.1% and 3%
	r.Equal(uint256.NewInt(1e15), f.market.MinFee())
	r.Equal(uint256.NewInt(3e16), f.market.MaxFee())
}

func TestInitValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *InitParams)
	}{
		{name: "empty name", mutate: func(p *InitParams) { p.Name = "" }},
		{name: "long name", mutate: func(p *InitParams) { p.Name = "a-market-name-that-exceeds-the-seed" }},
		{name: "zero leverage", mutate: func(p *InitParams) { p.Leverage = new(uint256.Int) }},
		{name: "zero duration", mutate: func(p *InitParams) { p.Duration = 0 }},
		{name: "duration overflow", mutate: func(p *InitParams) { p.Duration = ^uint64(0) - uint64(testOpenTime) + 1 }},
		{name: "zero seed", mutate: func(p *InitParams) { p.SeedB = new(uint256.Int) }},
		{name: "inverted fees", mutate: func(p *InitParams) { p.MinFee = uint256.NewInt(2e16) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := require.New(t)
			f := newFixture(t)
			p := f.params()
			tt.mutate(&p)
			_, err := f.market.Init(context.Background(), f.alice, p)
			r.ErrorIs(err, ErrInvalidConfig)
			r.Equal(shared.StateUninitialized, f.market.State())
			r.Equal(units(10), f.ledger.BalanceOf(testBaseToken, f.alice))
		})
	}
}

func TestInitInsufficientBase(t *testing.T) {
	r := require.New(t)
	f := newFixture(t)

	_, err := f.market.Init(context.Background(), f.bob, f.params())
	r.ErrorIs(err, ledger.ErrInsufficientBalance)
	r.Equal(shared.StateUninitialized, f.market.State())
}

var errTransferDown = errors.New("transfer unavailable")

type flakyLedger struct {
	*ledger.Memory
	down bool
}

func (l *flakyLedger) Transfer(mint, from, to solana.PublicKey, amount *uint256.Int) error {
	if l.down {
		return errTransferDown
	}
	return l.Memory.Transfer(mint, from, to, amount)
}

func TestInitRetryAfterFailedDeposit(t *testing.T) {
	r := require.New(t)
	f := newFixture(t)
	l := &flakyLedger{Memory: f.ledger, down: true}
	m := New(l, f.yield, WithClock(f.clock))

	_, err := m.Init(context.Background(), f.alice, f.params())
	r.ErrorIs(err, errTransferDown)
	r.Equal(shared.StateUninitialized, m.State())
	r.Equal(units(10), f.ledger.BalanceOf(testBaseToken, f.alice))

	l.down = false
	tokens, err := m.Init(context.Background(), f.alice, f.params())
	r.NoError(err)
	r.Equal(shared.StateOpen, m.State())
	r.Equal(units(1), f.ledger.BalanceOf(tokens.LP, f.alice))

	// a live market on the same ledger is not taken over
	_, err = New(f.ledger, f.yield, WithClock(f.clock)).Init(context.Background(), f.alice, f.params())
	r.ErrorIs(err, ErrAlreadyInitialized)
}

func TestLifecycle(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.open(t)
	m := f.market

	r.ErrorIs(m.Close(ctx), ErrNotClosable)
	_, err := m.Claim(ctx, f.alice)
	r.ErrorIs(err, ErrNotClaimable)

	// the window has elapsed but close has not run
	f.clock.set(testOpenTime + int64(testDuration))
	_, err = m.MintA(f.alice, units(1), nil)
	r.ErrorIs(err, ErrNotOpen)
	r.ErrorIs(err, ErrCannotTrade)

	r.NoError(m.Close(ctx))
	r.Equal(shared.StateClosed, m.State())
	r.ErrorIs(m.Close(ctx), ErrNotClosable)

	_, err = m.Mint(f.alice, units(1))
	r.ErrorIs(err, ErrCannotTrade)
	_, err = m.SwapAtoB(f.alice, units(1), nil)
	r.ErrorIs(err, ErrCannotTrade)
}

func TestClaim(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	tokens := f.open(t)
	m := f.market

	f.yield.SetIndex(testAsset, uint256.NewInt(1_050_000_000_000_000_000))
	f.clock.set(testOpenTime + int64(testDuration) + 1)
	r.NoError(m.Close(ctx))

	// 5% accrued at 10x leverage
	payoutA, payoutB := m.Payouts()
	r.Equal(uint256.NewInt(5e17), payoutA)
	r.Equal(uint256.NewInt(5e17), payoutB)

	// alice owns the whole LP supply
	payout, err := m.Claim(ctx, f.alice)
	r.NoError(err)
	r.Equal(units(1), payout)
	r.Equal(units(10), f.ledger.BalanceOf(testBaseToken, f.alice))
	r.True(f.ledger.BalanceOf(tokens.LP, f.alice).IsZero())
	r.True(m.TotalSupply().IsZero())
	r.True(m.PoolA().IsZero())
	r.True(m.PoolB().IsZero())

	payout, err = m.Claim(ctx, f.alice)
	r.NoError(err)
	r.True(payout.IsZero())
}

type fixedSettlement struct {
	payoutA, payoutB *uint256.Int
}

func (s fixedSettlement) ComputeSettlement(_, _, _, _ *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	return s.payoutA, s.payoutB, nil
}

func TestClaimCustomSettlement(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	f := newFixture(t, WithSettlement(fixedSettlement{payoutA: shared.One.Clone(), payoutB: new(uint256.Int)}))
	tokens := f.open(t)
	m := f.market

	// bob holds A and B minted at par
	r.NoError(f.ledger.Mint(testBaseToken, f.bob, units(2)))
	_, err := m.Mint(f.bob, units(2))
	r.NoError(err)

	f.clock.set(testOpenTime + int64(testDuration))
	r.NoError(m.Close(ctx))

	payout, err := m.Claim(ctx, f.bob)
	r.NoError(err)
	r.Equal(units(2), payout)
	r.True(f.ledger.BalanceOf(tokens.A, f.bob).IsZero())
	r.True(f.ledger.BalanceOf(tokens.B, f.bob).IsZero())
}

func TestYieldAccrued(t *testing.T) {
	r := require.New(t)

	got, err := YieldAccrued(shared.One, uint256.NewInt(1_100_000_000_000_000_000))
	r.NoError(err)
	r.Equal(uint256.NewInt(1e17), got)

	got, err = YieldAccrued(shared.One, uint256.NewInt(9e17))
	r.NoError(err)
	r.True(got.IsZero())

	payoutA, payoutB, err := LeveragedYieldSettlement{}.ComputeSettlement(nil, nil, units(20), uint256.NewInt(1e17))
	r.NoError(err)
	r.Equal(shared.One, payoutB)
	r.True(payoutA.IsZero())
}

func TestMetrics(t *testing.T) {
	r := require.New(t)
	reg := prometheus.NewRegistry()
	f := newFixture(t, WithMetrics(reg))
	f.open(t)
	m := f.market

	_, err := m.Mint(f.alice, units(1))
	r.NoError(err)
	_, err = m.Mint(f.bob, units(1))
	r.Error(err)

	r.Equal(float64(1), testutil.ToFloat64(m.metrics.operations.WithLabelValues("init", "ok")))
	r.Equal(float64(1), testutil.ToFloat64(m.metrics.operations.WithLabelValues("mint", "ok")))
	r.Equal(float64(1), testutil.ToFloat64(m.metrics.operations.WithLabelValues("mint", "error")))
	r.Equal(float64(1), testutil.ToFloat64(m.metrics.poolA))
	r.Equal(float64(1), testutil.ToFloat64(m.metrics.totalSupply))

	// a second market with the same name cannot register and runs without metrics
	g := newFixture(t, WithMetrics(reg))
	g.open(t)
	r.Nil(g.market.metrics)
}

func TestConcurrentMints(t *testing.T) {
	r := require.New(t)
	f := newFixture(t)
	f.open(t)

	const workers = 8
	owners := make([]solana.PublicKey, workers)
	for i := range owners {
		owners[i] = solana.NewWallet().PublicKey()
		r.NoError(f.ledger.Mint(testBaseToken, owners[i], units(1)))
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for _, owner := range owners {
		wg.Add(1)
		go func(owner solana.PublicKey) {
			defer wg.Done()
			_, err := f.market.Mint(owner, units(1))
			errs <- err
		}(owner)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		r.NoError(err)
	}

	r.Equal(units(1), f.market.PoolA())
	r.Equal(units(1), f.market.PoolB())
	r.Equal(units(1+workers), f.ledger.BalanceOf(testBaseToken, f.market.ID()))
}
