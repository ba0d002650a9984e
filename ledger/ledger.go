package ledger

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnknownToken        = errors.New("unknown token")
	ErrTokenExists         = errors.New("token already exists")
)

// Token describes a fungible token registered with a ledger.
type Token struct {
	Mint     solana.PublicKey
	Name     string
	Symbol   string
	Decimals uint8
}

// Ledger is the fungible balance bookkeeping the market mirrors its
// accounting decisions into. The base asset is a token like any other.
type Ledger interface {
	CreateToken(token Token) error
	BalanceOf(mint, owner solana.PublicKey) *uint256.Int
	TotalSupply(mint solana.PublicKey) *uint256.Int
	Mint(mint, to solana.PublicKey, amount *uint256.Int) error
	Burn(mint, from solana.PublicKey, amount *uint256.Int) error
	Transfer(mint, from, to solana.PublicKey, amount *uint256.Int) error
}
