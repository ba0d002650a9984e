package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/krazyTry/igain-go/decimal_math"
	"github.com/krazyTry/igain-go/market"
	"github.com/krazyTry/igain-go/shared"
)

type quoteView struct {
	Operation     shared.Operation `json:"operation"`
	Timestamp     uint64           `json:"timestamp"`
	FeeMultiplier decimal.Decimal  `json:"feeMultiplier"`
	AmountIn      decimal.Decimal  `json:"amountIn"`
	AmountOut     decimal.Decimal  `json:"amountOut"`
	PoolA         decimal.Decimal  `json:"poolA"`
	PoolB         decimal.Decimal  `json:"poolB"`
	TotalSupply   decimal.Decimal  `json:"totalSupply"`
}

func newQuoteView(q *market.Quote) quoteView {
	return quoteView{
		Operation:     q.Operation,
		Timestamp:     q.Timestamp,
		FeeMultiplier: decimal_math.FromFixed(q.FeeMultiplier),
		AmountIn:      decimal_math.FromFixed(q.AmountIn),
		AmountOut:     decimal_math.FromFixed(q.AmountOut),
		PoolA:         decimal_math.FromFixed(q.PoolA),
		PoolB:         decimal_math.FromFixed(q.PoolB),
		TotalSupply:   decimal_math.FromFixed(q.TotalSupply),
	}
}

func newQuoteCmd(s *simulator) *cobra.Command {
	var (
		op      string
		amount  string
		amountB string
		at      uint64
	)
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price one operation against the freshly seeded market",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := quoteParams(shared.Operation(op), amount, amountB)
			if err != nil {
				return err
			}
			m, err := s.boot(cmd.Context())
			if err != nil {
				return err
			}
			p.Timestamp = m.OpenTime() + at

			q, err := m.Quote(p)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), newQuoteView(q))
		},
	}
	cmd.Flags().StringVar(&op, "op", string(shared.OperationMintA), "operation to quote")
	cmd.Flags().StringVar(&amount, "amount", "1", "amount in whole units (A leg for depositLP/withdrawLP)")
	cmd.Flags().StringVar(&amountB, "amount-b", "", "B leg for depositLP/withdrawLP, defaults to --amount")
	cmd.Flags().Uint64Var(&at, "at", 0, "seconds after open")
	return cmd
}

func quoteParams(op shared.Operation, amount, amountB string) (market.QuoteParams, error) {
	v, err := decimal_math.ParseFixed(amount)
	if err != nil {
		return market.QuoteParams{}, fmt.Errorf("--amount: %w", err)
	}
	p := market.QuoteParams{Operation: op}
	switch op {
	case shared.OperationMintExactA, shared.OperationMintExactB:
		p.AmountOut = v
	case shared.OperationDepositLP, shared.OperationWithdrawLP:
		b := v
		if amountB != "" {
			if b, err = decimal_math.ParseFixed(amountB); err != nil {
				return market.QuoteParams{}, fmt.Errorf("--amount-b: %w", err)
			}
		}
		p.AmountA, p.AmountB = v, b
	default:
		p.AmountIn = v
	}
	return p, nil
}
