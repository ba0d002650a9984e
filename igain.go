package igain

import (
	"github.com/krazyTry/igain-go/ledger"
	"github.com/krazyTry/igain-go/market"
)

// NewMarket creates an uninitialized market over a token ledger and a yield source.
//
// Example:
//
// book := NewMemoryLedger()
//
// m := NewMarket(book, market.NewStaticYieldSource(), market.WithLogger(logger))
//
// tokens, _ := m.Init(ctx, initializer, params)
//
// out, _ := m.MintA(owner, amountIn, minOut)
var NewMarket = market.New

// NewMemoryLedger creates the in-process token ledger.
//
// Example:
//
// book := NewMemoryLedger()
//
// book.CreateToken(ledger.Token{Mint: usdc, Name: "USD Coin", Symbol: "USDC", Decimals: 18})
var NewMemoryLedger = ledger.NewMemory

// RestoreMarket rebuilds a market from a decoded snapshot.
var RestoreMarket = market.Restore
