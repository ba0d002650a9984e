package igain

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/krazyTry/igain-go/decimal_math"
	"github.com/krazyTry/igain-go/ledger"
	"github.com/krazyTry/igain-go/market"
	"github.com/krazyTry/igain-go/shared"
)

func testBalance(t *testing.T, book ledger.Ledger, mint, wallet solana.PublicKey) *uint256.Int {
	bal := book.BalanceOf(mint, wallet)
	t.Logf("wallet address:%v \t holdings:%v", wallet, decimal_math.FromFixed(bal))
	return bal
}

// TestEpoch runs one market from init to the last claim and checks the vault
// pays out everything it took in, down to rounding dust.
func TestEpoch(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	usdc := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	aUSDC := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	alice, bob, carol := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()

	book := NewMemoryLedger()
	r.NoError(book.CreateToken(ledger.Token{Mint: usdc, Name: "USD Coin", Symbol: "USDC", Decimals: shared.Decimals}))
	deposits := new(uint256.Int)
	for _, w := range []solana.PublicKey{alice, bob, carol} {
		amount := decimal_math.MustParseFixed("1000")
		r.NoError(book.Mint(usdc, w, amount))
		deposits.Add(deposits, amount)
	}

	now := time.Unix(1_700_000_000, 0)
	yield := market.NewStaticYieldSource()
	m := NewMarket(book, yield,
		market.WithLogger(zaptest.NewLogger(t)),
		market.WithClock(market.ClockFunc(func() time.Time { return now })),
	)

	tokens, err := m.Init(ctx, alice, market.InitParams{
		BaseToken: usdc,
		Asset:     aUSDC,
		Name:      "aUSDC-7d",
		Leverage:  decimal_math.MustParseFixed("5"),
		Duration:  7 * 86400,
		SeedA:     decimal_math.MustParseFixed("300"),
		SeedB:     decimal_math.MustParseFixed("200"),
	})
	r.NoError(err)

	now = now.Add(6 * time.Hour)
	_, err = m.MintA(bob, decimal_math.MustParseFixed("120"), nil)
	r.NoError(err)
	_, err = m.MintB(carol, decimal_math.MustParseFixed("80"), nil)
	r.NoError(err)

	now = now.Add(48 * time.Hour)
	_, err = m.MintExactB(bob, decimal_math.MustParseFixed("50"), decimal_math.MustParseFixed("50"))
	r.NoError(err)
	_, err = m.MintLP(carol, decimal_math.MustParseFixed("40"), nil)
	r.NoError(err)
	_, err = m.SwapAtoB(bob, decimal_math.MustParseFixed("30"), nil)
	r.NoError(err)

	now = now.Add(72 * time.Hour)
	_, err = m.BurnB(carol, decimal_math.MustParseFixed("10"), nil)
	r.NoError(err)
	_, err = m.BurnLP(carol, decimal_math.MustParseFixed("1"), nil)
	r.NoError(err)

	now = now.Add(7 * 24 * time.Hour)
	yield.SetIndex(aUSDC, decimal_math.MustParseFixed("1.02"))
	r.NoError(m.Close(ctx))

	// 2% at 5x leverage
	payoutA, payoutB := m.Payouts()
	r.Equal(decimal_math.MustParseFixed("0.9"), payoutA)
	r.Equal(decimal_math.MustParseFixed("0.1"), payoutB)

	for _, w := range []solana.PublicKey{bob, carol, alice} {
		_, err := m.Claim(ctx, w)
		r.NoError(err)
		r.True(book.BalanceOf(tokens.A, w).IsZero())
		r.True(book.BalanceOf(tokens.B, w).IsZero())
		r.True(book.BalanceOf(tokens.LP, w).IsZero())
	}

	paid := new(uint256.Int)
	for _, w := range []solana.PublicKey{alice, bob, carol} {
		paid.Add(paid, testBalance(t, book, usdc, w))
	}
	vault := testBalance(t, book, usdc, m.ID())
	r.Equal(deposits, new(uint256.Int).Add(paid, vault))
	r.True(vault.Lt(uint256.NewInt(100)), "vault kept %s", vault.Dec())
	r.True(m.TotalSupply().IsZero())
}
