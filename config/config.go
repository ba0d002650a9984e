package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/krazyTry/igain-go/decimal_math"
	"github.com/krazyTry/igain-go/market"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var ErrUnsupportedFormat = errors.New("unsupported config format")

// MarketConfig describes one market. Amounts are human decimals in whole
// units ("5", "0.003"); an empty fee falls back to the market default.
type MarketConfig struct {
	Name        string `yaml:"name"`
	BaseToken   string `yaml:"base_token"`
	YieldSource string `yaml:"yield_source"`
	Asset       string `yaml:"asset"`
	Treasury    string `yaml:"treasury"`
	Leverage    string `yaml:"leverage"`
	Duration    uint64 `yaml:"duration"`
	SeedA       string `yaml:"seed_a"`
	SeedB       string `yaml:"seed_b"`
	MinFee      string `yaml:"min_fee"`
	MaxFee      string `yaml:"max_fee"`

	// OpenTime pins the epoch start in unix seconds for simulations; zero
	// means the wall clock.
	OpenTime int64 `yaml:"open_time"`
}

// Load reads a config file, choosing the format by extension.
func Load(path string) (*MarketConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		format = FormatJSON
	case ".yaml", ".yml":
		format = FormatYAML
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return Parse(data, format)
}

func Parse(data []byte, format Format) (*MarketConfig, error) {
	var cfg *MarketConfig
	switch format {
	case FormatJSON:
		if !gjson.ValidBytes(data) {
			return nil, fmt.Errorf("parse config: invalid json")
		}
		cfg = fromJSON(gjson.ParseBytes(data))
	case FormatYAML:
		cfg = &MarketConfig{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromJSON(doc gjson.Result) *MarketConfig {
	return &MarketConfig{
		Name:        doc.Get("name").String(),
		BaseToken:   doc.Get("base_token").String(),
		YieldSource: doc.Get("yield_source").String(),
		Asset:       doc.Get("asset").String(),
		Treasury:    doc.Get("treasury").String(),
		Leverage:    doc.Get("leverage").String(),
		Duration:    doc.Get("duration").Uint(),
		SeedA:       doc.Get("seed_a").String(),
		SeedB:       doc.Get("seed_b").String(),
		MinFee:      doc.Get("min_fee").String(),
		MaxFee:      doc.Get("max_fee").String(),
		OpenTime:    doc.Get("open_time").Int(),
	}
}

// Validate checks that the config converts into valid init parameters.
func (c *MarketConfig) Validate() error {
	p, err := c.Params()
	if err != nil {
		return err
	}
	return p.Validate()
}

// Params converts the config into market init parameters.
func (c *MarketConfig) Params() (market.InitParams, error) {
	p := market.InitParams{Name: c.Name, Duration: c.Duration}

	keys := []struct {
		field string
		value string
		dst   *solana.PublicKey
	}{
		{"base_token", c.BaseToken, &p.BaseToken},
		{"yield_source", c.YieldSource, &p.YieldSource},
		{"asset", c.Asset, &p.Asset},
		{"treasury", c.Treasury, &p.Treasury},
	}
	for _, k := range keys {
		key, err := solana.PublicKeyFromBase58(k.value)
		if err != nil {
			return market.InitParams{}, fmt.Errorf("%w: %s: %w", market.ErrInvalidConfig, k.field, err)
		}
		*k.dst = key
	}

	amounts := []struct {
		field    string
		value    string
		optional bool
		dst      **uint256.Int
	}{
		{"leverage", c.Leverage, false, &p.Leverage},
		{"seed_a", c.SeedA, false, &p.SeedA},
		{"seed_b", c.SeedB, false, &p.SeedB},
		{"min_fee", c.MinFee, true, &p.MinFee},
		{"max_fee", c.MaxFee, true, &p.MaxFee},
	}
	for _, a := range amounts {
		if a.value == "" && a.optional {
			continue
		}
		v, err := decimal_math.ParseFixed(a.value)
		if err != nil {
			return market.InitParams{}, fmt.Errorf("%w: %s: %w", market.ErrInvalidConfig, a.field, err)
		}
		*a.dst = v
	}
	return p, nil
}
