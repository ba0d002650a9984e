package shared

import (
	"github.com/holiman/uint256"
)

// Fixed-point scale shared by every amount, fee and price in the engine.
const (
	Decimals = 18

	// MaxSeedLength is the PDA seed limit; market names are used as seeds.
	MaxSeedLength = 32

	DefaultMinFeeBps = 10  // 0.1%
	DefaultMaxFeeBps = 300 // 3%
	MaxBasisPoint    = 10_000
)

var (
	// One is 1e18, the fixed-point representation of 1.
	One = uint256.NewInt(1_000_000_000_000_000_000)
	// TwoOne is 2e18.
	TwoOne = uint256.NewInt(2_000_000_000_000_000_000)

	Zero = uint256.NewInt(0)
)

type Rounding uint8

const (
	RoundingUp   Rounding = 0
	RoundingDown Rounding = 1
)

// State is the epoch lifecycle state of a market.
type State uint8

const (
	StateUninitialized State = 0
	StateOpen          State = 1
	StateClosed        State = 2
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Side selects one of the two complementary claims.
type Side uint8

const (
	SideA Side = 0
	SideB Side = 1
)

func (s Side) String() string {
	if s == SideA {
		return "A"
	}
	return "B"
}

// Other returns the complementary side.
func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

type Operation string

const (
	OperationInit       Operation = "init"
	OperationMint       Operation = "mint"
	OperationBurn       Operation = "burn"
	OperationMintA      Operation = "mintA"
	OperationMintB      Operation = "mintB"
	OperationMintExactA Operation = "mintExactA"
	OperationMintExactB Operation = "mintExactB"
	OperationBurnA      Operation = "burnA"
	OperationBurnB      Operation = "burnB"
	OperationSwapAtoB   Operation = "swapAtoB"
	OperationSwapBtoA   Operation = "swapBtoA"
	OperationMintLP     Operation = "mintLP"
	OperationBurnLP     Operation = "burnLP"
	OperationDepositLP  Operation = "depositLP"
	OperationWithdrawLP Operation = "withdrawLP"
	OperationClose      Operation = "close"
	OperationClaim      Operation = "claim"
)
