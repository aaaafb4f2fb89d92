package config

import (
	"net/url"

	"github.com/ethereum/go-ethereum/common"
	"github.com/usdtb-otc/mint-svc/internal/order"
	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const defaultDeployment = "usdtb"

type Deployment struct {
	Name               string
	Symbol             string
	Schema             order.Schema
	MintingContract    common.Address
	API                *url.URL
	ChainID            int64
	DomainName         string
	DomainVersion      string
	SettlementToken    *common.Address
	SettlementDecimals int32
	Explorer           string
	Assets             map[string]Asset
}

func (d Deployment) Pair(collateral string) string {
	return collateral + "/" + d.Symbol
}

func (d Deployment) TxLink(tx string) string {
	return d.Explorer + tx
}

func (c *config) Deployment() Deployment {
	return c.deploymentOnce.Do(func() interface{} {
		var cfg struct {
			Name               string `fig:"name"`
			Symbol             string `fig:"symbol"`
			SettlementField    string `fig:"settlement_field"`
			SettlementToken    string `fig:"settlement_token"`
			SettlementDecimals int64  `fig:"settlement_decimals"`
			MintingContract    string `fig:"minting_contract"`
			API                string `fig:"api"`
			ChainID            int64  `fig:"chain_id"`
			DomainName         string `fig:"domain_name"`
			DomainVersion      string `fig:"domain_version"`
			Explorer           string `fig:"explorer"`
		}
		err := figure.Out(&cfg).
			From(c.section("deployment")).
			Please()
		if err != nil {
			panic(order.ConfigError(errors.Wrap(err, "failed to figure out deployment")))
		}

		if cfg.Name == "" {
			cfg.Name = defaultDeployment
		}
		table := BuiltinDeployments()
		entry, ok := table.Deployment(cfg.Name)
		if !ok {
			panic(order.ConfigError(errors.From(errors.New("unknown deployment"), logan.F{"deployment": cfg.Name})))
		}

		d, err := mergeDeployment(entry, cfg.Name, deploymentOverrides{
			Symbol:             cfg.Symbol,
			SettlementField:    cfg.SettlementField,
			SettlementToken:    cfg.SettlementToken,
			SettlementDecimals: int32(cfg.SettlementDecimals),
			MintingContract:    cfg.MintingContract,
			API:                cfg.API,
			ChainID:            cfg.ChainID,
			DomainName:         cfg.DomainName,
			DomainVersion:      cfg.DomainVersion,
			Explorer:           cfg.Explorer,
		})
		if err != nil {
			panic(order.ConfigError(err))
		}
		d.Assets = table.Assets
		return d
	}).(Deployment)
}

type deploymentOverrides DeploymentEntry

func mergeDeployment(entry DeploymentEntry, name string, o deploymentOverrides) (Deployment, error) {
	pick := func(override, builtin string) string {
		if override != "" {
			return override
		}
		return builtin
	}

	minting := pick(o.MintingContract, entry.MintingContract)
	if !common.IsHexAddress(minting) {
		return Deployment{}, errors.From(errors.New("invalid minting contract"), logan.F{"minting_contract": minting})
	}
	api, err := url.Parse(pick(o.API, entry.API))
	if err != nil || api.Scheme == "" || api.Host == "" {
		return Deployment{}, errors.From(errors.New("invalid api url"), logan.F{"api": pick(o.API, entry.API)})
	}

	d := Deployment{
		Name:               name,
		Symbol:             pick(o.Symbol, entry.Symbol),
		Schema:             order.Schema{SettlementField: pick(o.SettlementField, entry.SettlementField)},
		MintingContract:    common.HexToAddress(minting),
		API:                api,
		ChainID:            entry.ChainID,
		DomainName:         pick(o.DomainName, entry.DomainName),
		DomainVersion:      pick(pick(o.DomainVersion, entry.DomainVersion), "1"),
		SettlementDecimals: entry.SettlementDecimals,
		Explorer:           pick(pick(o.Explorer, entry.Explorer), "https://etherscan.io/tx/"),
	}
	if o.ChainID != 0 {
		d.ChainID = o.ChainID
	}
	if o.SettlementDecimals != 0 {
		d.SettlementDecimals = o.SettlementDecimals
	}
	if d.SettlementDecimals == 0 {
		d.SettlementDecimals = 6
	}
	if settlement := pick(o.SettlementToken, entry.SettlementToken); settlement != "" {
		if !common.IsHexAddress(settlement) {
			return Deployment{}, errors.From(errors.New("invalid settlement token"), logan.F{"settlement_token": settlement})
		}
		token := common.HexToAddress(settlement)
		d.SettlementToken = &token
	}
	return d, nil
}
