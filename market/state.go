package market

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/krazyTry/igain-go/ledger"
	"github.com/krazyTry/igain-go/shared"
)

const snapshotVersion uint8 = 1

// Snapshot is the complete engine state. It is Borsh encoded with amounts as
// 32-byte big-endian words.
type Snapshot struct {
	Version     uint8
	ID          solana.PublicKey
	BaseToken   solana.PublicKey
	YieldSource solana.PublicKey
	Asset       solana.PublicKey
	Treasury    solana.PublicKey
	Name        string
	Tokens      Tokens
	State       shared.State
	OpenTime    uint64
	CloseTime   uint64
	MinFee      *uint256.Int
	MaxFee      *uint256.Int
	Leverage    *uint256.Int
	PoolA       *uint256.Int
	PoolB       *uint256.Int
	TotalSupply *uint256.Int
	OpenIndex   *uint256.Int
	PayoutA     *uint256.Int
	PayoutB     *uint256.Int
}

func (obj Snapshot) amounts() []*uint256.Int {
	return []*uint256.Int{obj.MinFee, obj.MaxFee, obj.Leverage, obj.PoolA, obj.PoolB, obj.TotalSupply, obj.OpenIndex, obj.PayoutA, obj.PayoutB}
}

func (obj Snapshot) MarshalWithEncoder(encoder *bin.Encoder) error {
	for _, v := range []interface{}{
		obj.Version,
		obj.ID,
		obj.BaseToken,
		obj.YieldSource,
		obj.Asset,
		obj.Treasury,
		obj.Name,
		obj.Tokens.A,
		obj.Tokens.B,
		obj.Tokens.LP,
		uint8(obj.State),
		obj.OpenTime,
		obj.CloseTime,
	} {
		if err := encoder.Encode(v); err != nil {
			return err
		}
	}
	for _, v := range obj.amounts() {
		var word [32]byte
		if v != nil {
			word = v.Bytes32()
		}
		if err := encoder.Encode(word); err != nil {
			return err
		}
	}
	return nil
}

func (obj *Snapshot) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var state uint8
	for _, v := range []interface{}{
		&obj.Version,
		&obj.ID,
		&obj.BaseToken,
		&obj.YieldSource,
		&obj.Asset,
		&obj.Treasury,
		&obj.Name,
		&obj.Tokens.A,
		&obj.Tokens.B,
		&obj.Tokens.LP,
		&state,
		&obj.OpenTime,
		&obj.CloseTime,
	} {
		if err := decoder.Decode(v); err != nil {
			return err
		}
	}
	obj.State = shared.State(state)
	for _, dst := range []**uint256.Int{
		&obj.MinFee, &obj.MaxFee, &obj.Leverage,
		&obj.PoolA, &obj.PoolB, &obj.TotalSupply,
		&obj.OpenIndex, &obj.PayoutA, &obj.PayoutB,
	} {
		var word [32]byte
		if err := decoder.Decode(&word); err != nil {
			return err
		}
		*dst = new(uint256.Int).SetBytes32(word[:])
	}
	return nil
}

func EncodeState(s *Snapshot) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := s.MarshalWithEncoder(bin.NewBorshEncoder(buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeState(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := s.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return nil, err
	}
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	return &s, nil
}

// Snapshot captures the market state for a host to persist.
func (m *Market) Snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return &Snapshot{
		Version:     snapshotVersion,
		ID:          m.id,
		BaseToken:   m.baseToken,
		YieldSource: m.yieldSource,
		Asset:       m.asset,
		Treasury:    m.treasury,
		Name:        m.name,
		Tokens:      m.tokens,
		State:       m.state,
		OpenTime:    m.openTime,
		CloseTime:   m.closeTime,
		MinFee:      m.minFee.Clone(),
		MaxFee:      m.maxFee.Clone(),
		Leverage:    m.leverage.Clone(),
		PoolA:       m.poolA.Clone(),
		PoolB:       m.poolB.Clone(),
		TotalSupply: m.totalSupply.Clone(),
		OpenIndex:   m.openIndex.Clone(),
		PayoutA:     m.payoutA.Clone(),
		PayoutB:     m.payoutB.Clone(),
	}
}

// Restore rebuilds a market from s on top of a ledger that already holds the
// matching balances.
func Restore(s *Snapshot, l ledger.Ledger, yield YieldSource, opts ...Option) (*Market, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalidConfig)
	}
	if s.State > shared.StateClosed {
		return nil, fmt.Errorf("%w: unknown state %d", ErrInvalidConfig, s.State)
	}
	for _, v := range s.amounts() {
		if v == nil {
			return nil, fmt.Errorf("%w: snapshot is missing amounts", ErrInvalidConfig)
		}
	}
	if s.State != shared.StateUninitialized && (s.PoolA.IsZero() || s.PoolB.IsZero()) {
		return nil, fmt.Errorf("%w: empty reserves", ErrInvalidConfig)
	}

	m := New(l, yield, opts...)
	m.id = s.ID
	m.baseToken = s.BaseToken
	m.yieldSource = s.YieldSource
	m.asset = s.Asset
	m.treasury = s.Treasury
	m.name = s.Name
	m.tokens = s.Tokens
	m.state = s.State
	m.openTime = s.OpenTime
	m.closeTime = s.CloseTime
	m.minFee = s.MinFee.Clone()
	m.maxFee = s.MaxFee.Clone()
	m.leverage = s.Leverage.Clone()
	m.poolA = s.PoolA.Clone()
	m.poolB = s.PoolB.Clone()
	m.totalSupply = s.TotalSupply.Clone()
	m.openIndex = s.OpenIndex.Clone()
	m.payoutA = s.PayoutA.Clone()
	m.payoutB = s.PayoutB.Clone()
	if m.state != shared.StateUninitialized {
		m.enableMetrics()
	}
	return m, nil
}
