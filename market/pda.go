package market

import (
	"fmt"

	solanago "github.com/gagliardetto/solana-go"

	"github.com/krazyTry/igain-go/shared"
)

// ProgramID namespaces every address derived by the engine.
var ProgramID = solanago.MustPublicKeyFromBase58("7ZvUNf8Nca37cQasNZYMek6bwBKFxXDjr7KgPCdweMfd")

var seed = struct {
	Market  []byte
	TokenA  []byte
	TokenB  []byte
	TokenLP []byte
}{
	Market:  []byte("market"),
	TokenA:  []byte("a_token"),
	TokenB:  []byte("b_token"),
	TokenLP: []byte("lp_token"),
}

// Tokens identifies the ledgers created for a market.
type Tokens struct {
	A  solanago.PublicKey `json:"a"`
	B  solanago.PublicKey `json:"b"`
	LP solanago.PublicKey `json:"lp"`
}

// DeriveMarketAddress derives the market id, which also holds the base asset vault.
func DeriveMarketAddress(baseToken, asset solanago.PublicKey, name string) (solanago.PublicKey, error) {
	if len(name) == 0 || len(name) > shared.MaxSeedLength {
		return solanago.PublicKey{}, fmt.Errorf("%w: name must be 1..%d bytes", ErrInvalidConfig, shared.MaxSeedLength)
	}
	pda, _, err := solanago.FindProgramAddress([][]byte{seed.Market, baseToken.Bytes(), asset.Bytes(), []byte(name)}, ProgramID)
	if err != nil {
		return solanago.PublicKey{}, err
	}
	return pda, nil
}

func DeriveTokenAddresses(market solanago.PublicKey) (Tokens, error) {
	a, _, err := solanago.FindProgramAddress([][]byte{seed.TokenA, market.Bytes()}, ProgramID)
	if err != nil {
		return Tokens{}, err
	}
	b, _, err := solanago.FindProgramAddress([][]byte{seed.TokenB, market.Bytes()}, ProgramID)
	if err != nil {
		return Tokens{}, err
	}
	lp, _, err := solanago.FindProgramAddress([][]byte{seed.TokenLP, market.Bytes()}, ProgramID)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{A: a, B: b, LP: lp}, nil
}
