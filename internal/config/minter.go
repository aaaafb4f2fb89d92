package config

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/usdtb-otc/mint-svc/internal/order"
	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type HashSource string

const (
	HashLocal    HashSource = "local"
	HashContract HashSource = "contract"
	HashChecked  HashSource = "checked"
)

type Minter struct {
	Side               order.Side
	CollateralSymbol   string
	CollateralAsset    common.Address
	CollateralDecimals int32
	Benefactor         common.Address
	Beneficiary        common.Address
	MinSize            int64
	MaxSize            int64
	Reserve            int64
	IdlePeriod         time.Duration
	CyclePeriod        time.Duration
	MaxBackoff         time.Duration
	OrderTTL           time.Duration
	Nonce              order.NonceStrategy
	HashSource         HashSource
	Journal            bool
}

const (
	defaultMinSize     = 25
	defaultMaxSize     = 9900000
	defaultIdlePeriod  = 10 * time.Second
	defaultCyclePeriod = 13 * time.Second
)

type minterRaw struct {
	Side            string        `fig:"side"`
	CollateralAsset string        `fig:"collateral_asset"`
	Benefactor      string        `fig:"benefactor"`
	Beneficiary     string        `fig:"beneficiary"`
	MinSize         int64         `fig:"min_size"`
	MaxSize         int64         `fig:"max_size"`
	Reserve         int64         `fig:"reserve"`
	IdlePeriod      time.Duration `fig:"idle_period"`
	CyclePeriod     time.Duration `fig:"cycle_period"`
	MaxBackoff      time.Duration `fig:"max_backoff"`
	OrderTTL        time.Duration `fig:"order_ttl"`
	Nonce           string        `fig:"nonce"`
	HashSource      string        `fig:"hash_source"`
	Journal         bool          `fig:"journal"`
}

func (c *config) Minter() Minter {
	return c.minterOnce.Do(func() interface{} {
		var raw minterRaw
		err := figure.Out(&raw).
			From(c.section("minter")).
			Please()
		if err != nil {
			panic(order.ConfigError(errors.Wrap(err, "failed to figure out minter")))
		}

		m, err := buildMinter(raw, c.Deployment().Assets, c.Signer().Address())
		if err != nil {
			panic(order.ConfigError(err))
		}
		return m
	}).(Minter)
}

func buildMinter(raw minterRaw, assets map[string]Asset, signerAddress common.Address) (Minter, error) {
	side, err := order.ParseSide(pickString(raw.Side, "MINT"))
	if err != nil {
		return Minter{}, err
	}

	symbol := strings.ToUpper(pickString(raw.CollateralAsset, "USDC"))
	asset, ok := assets[symbol]
	if !ok {
		return Minter{}, errors.From(errors.New("collateral asset must be USDC or BUIDL"), logan.F{"collateral_asset": raw.CollateralAsset})
	}

	benefactor, err := parseOptionalAddress(raw.Benefactor, signerAddress)
	if err != nil {
		return Minter{}, errors.Wrap(err, "bad benefactor")
	}
	beneficiary, err := parseOptionalAddress(raw.Beneficiary, benefactor)
	if err != nil {
		return Minter{}, errors.Wrap(err, "bad beneficiary")
	}

	nonce, err := order.ParseNonceStrategy(raw.Nonce)
	if err != nil {
		return Minter{}, err
	}

	m := Minter{
		Side:               side,
		CollateralSymbol:   symbol,
		CollateralAsset:    common.HexToAddress(asset.Address),
		CollateralDecimals: asset.Decimals,
		Benefactor:         benefactor,
		Beneficiary:        beneficiary,
		MinSize:            pickInt(raw.MinSize, defaultMinSize),
		MaxSize:            pickInt(raw.MaxSize, defaultMaxSize),
		Reserve:            raw.Reserve,
		IdlePeriod:         pickDuration(raw.IdlePeriod, defaultIdlePeriod),
		CyclePeriod:        pickDuration(raw.CyclePeriod, defaultCyclePeriod),
		OrderTTL:           pickDuration(raw.OrderTTL, order.DefaultTTL),
		Nonce:              nonce,
		HashSource:         HashSource(strings.ToLower(pickString(raw.HashSource, string(HashChecked)))),
		Journal:            raw.Journal,
	}
	m.MaxBackoff = pickDuration(raw.MaxBackoff, m.CyclePeriod)

	switch m.HashSource {
	case HashLocal, HashContract, HashChecked:
	default:
		return Minter{}, errors.From(errors.New("unknown hash source"), logan.F{"hash_source": raw.HashSource})
	}
	if m.MinSize <= 0 || m.MaxSize < m.MinSize {
		return Minter{}, errors.From(errors.New("size bounds are inconsistent"), logan.F{
			"min_size": m.MinSize,
			"max_size": m.MaxSize,
		})
	}
	if m.Reserve < 0 {
		return Minter{}, errors.New("reserve must not be negative")
	}
	if m.MaxBackoff < m.CyclePeriod {
		return Minter{}, errors.New("max_backoff must not be shorter than cycle_period")
	}
	return m, nil
}

func parseOptionalAddress(raw string, fallback common.Address) (common.Address, error) {
	if raw == "" {
		return fallback, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, errors.From(errors.New("invalid address"), logan.F{"address": raw})
	}
	return common.HexToAddress(raw), nil
}

func pickString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func pickInt(v, fallback int64) int64 {
	if v == 0 {
		return fallback
	}
	return v
}

func pickDuration(v, fallback time.Duration) time.Duration {
	if v == 0 {
		return fallback
	}
	return v
}
