package market

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/krazyTry/igain-go/shared"
)

func TestSnapshotRoundTrip(t *testing.T) {
	r := require.New(t)
	f := newFixture(t)
	f.open(t)
	m := f.market
	f.clock.set(testOpenTime + 100)

	_, err := m.MintA(f.alice, ninth(), nil)
	r.NoError(err)

	data, err := EncodeState(m.Snapshot())
	r.NoError(err)
	decoded, err := DecodeState(data)
	r.NoError(err)
	r.Equal(m.Snapshot(), decoded)

	restored, err := Restore(decoded, f.ledger, f.yield, WithClock(f.clock))
	r.NoError(err)
	r.Equal(m.ID(), restored.ID())
	r.Equal(m.Tokens(), restored.Tokens())
	r.Equal(shared.StateOpen, restored.State())
	r.Equal(m.PoolA(), restored.PoolA())
	r.Equal(m.PoolB(), restored.PoolB())
	r.Equal(m.CloseTime(), restored.CloseTime())

	want, err := m.Quote(QuoteParams{Operation: shared.OperationBurnA, AmountIn: units(1)})
	r.NoError(err)
	got, err := restored.Quote(QuoteParams{Operation: shared.OperationBurnA, AmountIn: units(1)})
	r.NoError(err)
	r.Equal(want, got)

	// the restored engine keeps trading against the shared ledger
	_, err = restored.Mint(f.alice, units(1))
	r.NoError(err)
}

func TestDecodeStateRejects(t *testing.T) {
	r := require.New(t)

	_, err := DecodeState([]byte{1, 2, 3})
	r.Error(err)

	s := newFixture(t).market.Snapshot()
	s.Version = 9
	data, err := EncodeState(s)
	r.NoError(err)
	_, err = DecodeState(data)
	r.Error(err)
}

func TestRestoreValidation(t *testing.T) {
	r := require.New(t)
	f := newFixture(t)
	f.open(t)

	_, err := Restore(nil, f.ledger, f.yield)
	r.ErrorIs(err, ErrInvalidConfig)

	s := f.market.Snapshot()
	s.PoolB = new(uint256.Int)
	_, err = Restore(s, f.ledger, f.yield)
	r.ErrorIs(err, ErrInvalidConfig)

	s = f.market.Snapshot()
	s.State = shared.State(7)
	_, err = Restore(s, f.ledger, f.yield)
	r.ErrorIs(err, ErrInvalidConfig)
}
