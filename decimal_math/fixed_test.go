package decimal_math

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestToFixed(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
		err      error
	}{
		{name: "whole", in: "10000", expected: "10000000000000000000000"},
		{name: "fraction", in: "0.003", expected: "3000000000000000"},
		{name: "smallest unit", in: "0.000000000000000001", expected: "1"},
		{name: "zero", in: "0", expected: "0"},
		{name: "too precise", in: "0.0000000000000000001", err: ErrTooManyDigits},
		{name: "negative", in: "-1", err: ErrNegativeAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := require.New(t)
			got, err := ParseFixed(tt.in)
			if tt.err != nil {
				r.ErrorIs(err, tt.err)
				return
			}
			r.NoError(err)
			r.Equal(tt.expected, got.Dec())
		})
	}
}

func TestFromFixed(t *testing.T) {
	r := require.New(t)
	v := MustParseFixed("1234.56789")
	r.True(FromFixed(v).Equal(decimal.RequireFromString("1234.56789")))
	r.InDelta(1234.56789, FromFixedFloat(v), 1e-9)
}

func TestFromBps(t *testing.T) {
	r := require.New(t)
	r.Equal("3000000000000000", FromBps(30).Dec())
	r.Equal("1000000000000000000", FromBps(10_000).Dec())
	r.True(Pow10(18).Equal(decimal.RequireFromString("1000000000000000000")))
}

func TestParseFixedRejectsGarbage(t *testing.T) {
	_, err := ParseFixed("one")
	require.Error(t, err)
}
