package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/krazyTry/igain-go/decimal_math"
	"github.com/krazyTry/igain-go/math"
	"github.com/krazyTry/igain-go/shared"
)

type schedulePoint struct {
	Elapsed       uint64          `json:"elapsed"`
	Timestamp     uint64          `json:"timestamp"`
	Fee           decimal.Decimal `json:"fee"`
	FeeMultiplier decimal.Decimal `json:"feeMultiplier"`
}

func newScheduleCmd(s *simulator) *cobra.Command {
	var steps uint64
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the fee multiplier across the epoch",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps == 0 {
				return fmt.Errorf("steps must be greater than 0")
			}
			p, err := s.cfg.Params()
			if err != nil {
				return err
			}
			if err := p.Validate(); err != nil {
				return err
			}

			open := uint64(s.openTime())
			closeTime := open + p.Duration
			points := make([]schedulePoint, 0, steps+1)
			for i := uint64(0); i <= steps; i++ {
				elapsed := p.Duration * i / steps
				multiplier := math.GetFeeMultiplier(open, closeTime, open+elapsed, p.MinFee, p.MaxFee)
				points = append(points, schedulePoint{
					Elapsed:       elapsed,
					Timestamp:     open + elapsed,
					Fee:           decimal_math.FromFixed(shared.One).Sub(decimal_math.FromFixed(multiplier)),
					FeeMultiplier: decimal_math.FromFixed(multiplier),
				})
			}
			return writeJSON(cmd.OutOrStdout(), points)
		},
	}
	cmd.Flags().Uint64Var(&steps, "steps", 10, "number of intervals the epoch is split into")
	return cmd
}
