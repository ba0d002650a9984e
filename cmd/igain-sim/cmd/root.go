package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/krazyTry/igain-go/config"
	"github.com/krazyTry/igain-go/ledger"
	"github.com/krazyTry/igain-go/market"
	"github.com/krazyTry/igain-go/math"
	"github.com/krazyTry/igain-go/shared"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type simulator struct {
	configPath string
	verbose    bool

	log *zap.Logger
	cfg *config.MarketConfig
}

func NewRootCmd() *cobra.Command {
	s := &simulator{}
	cmd := &cobra.Command{
		Use:   "igain-sim",
		Short: "iGain market simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.HasParent() {
				return nil
			}
			return s.Init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if s.log != nil {
				_ = s.log.Sync()
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.DisableAutoGenTag = true
	cmd.SilenceUsage = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.PersistentFlags().StringVar(&s.configPath, "config", "market.yaml", "market config file (json or yaml)")
	cmd.PersistentFlags().BoolVar(&s.verbose, "verbose", false, "log engine activity")

	cmd.AddCommand(
		newScheduleCmd(s),
		newQuoteCmd(s),
	)
	return cmd
}

func (s *simulator) Init() error {
	var err error
	if s.verbose {
		s.log, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		s.log, err = cfg.Build()
	}
	if err != nil {
		return err
	}

	s.cfg, err = config.Load(s.configPath)
	if err != nil {
		return err
	}
	s.log.Debug("config loaded", zap.String("path", s.configPath), zap.String("market", s.cfg.Name))
	return nil
}

func (s *simulator) openTime() int64 {
	if s.cfg.OpenTime > 0 {
		return s.cfg.OpenTime
	}
	return time.Now().Unix()
}

// boot opens the configured market on an in-memory ledger. The deployer is
// funded with exactly the seed deposit.
func (s *simulator) boot(ctx context.Context) (*market.Market, error) {
	p, err := s.cfg.Params()
	if err != nil {
		return nil, err
	}

	l := ledger.NewMemory()
	if err := l.CreateToken(ledger.Token{Mint: p.BaseToken, Name: "base", Symbol: "BASE", Decimals: shared.Decimals}); err != nil {
		return nil, err
	}
	deployer := p.Treasury
	if err := l.Mint(p.BaseToken, deployer, math.Max(p.SeedA, p.SeedB)); err != nil {
		return nil, err
	}

	open := time.Unix(s.openTime(), 0)
	m := market.New(l, market.NewStaticYieldSource(),
		market.WithLogger(s.log),
		market.WithClock(market.ClockFunc(func() time.Time { return open })),
	)
	if _, err := m.Init(ctx, deployer, p); err != nil {
		return nil, fmt.Errorf("init market: %w", err)
	}
	return m, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
