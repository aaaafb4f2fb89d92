package config

import (
	_ "embed"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
	"gopkg.in/yaml.v3"
)

//go:embed deployments.yaml
var builtinDeployments []byte

type Asset struct {
	Address  string `yaml:"address"`
	Decimals int32  `yaml:"decimals"`
}

type DeploymentEntry struct {
	Symbol             string `yaml:"symbol"`
	SettlementField    string `yaml:"settlement_field"`
	SettlementToken    string `yaml:"settlement_token"`
	SettlementDecimals int32  `yaml:"settlement_decimals"`
	MintingContract    string `yaml:"minting_contract"`
	API                string `yaml:"api"`
	ChainID            int64  `yaml:"chain_id"`
	DomainName         string `yaml:"domain_name"`
	DomainVersion      string `yaml:"domain_version"`
	Explorer           string `yaml:"explorer"`
}

type DeploymentTable struct {
	Assets      map[string]Asset           `yaml:"assets"`
	Deployments map[string]DeploymentEntry `yaml:"deployments"`
}

func ParseDeploymentTable(raw []byte) (DeploymentTable, error) {
	var table DeploymentTable
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return DeploymentTable{}, errors.Wrap(err, "failed to unmarshal deployment table")
	}

	for symbol, asset := range table.Assets {
		if !common.IsHexAddress(asset.Address) {
			return DeploymentTable{}, errors.From(errors.New("invalid asset address"), logan.F{"asset": symbol})
		}
	}
	for name, d := range table.Deployments {
		if !common.IsHexAddress(d.MintingContract) {
			return DeploymentTable{}, errors.From(errors.New("invalid minting contract"), logan.F{"deployment": name})
		}
		if d.SettlementToken != "" && !common.IsHexAddress(d.SettlementToken) {
			return DeploymentTable{}, errors.From(errors.New("invalid settlement token"), logan.F{"deployment": name})
		}
		if d.SettlementField == "" || d.API == "" {
			return DeploymentTable{}, errors.From(errors.New("deployment is incomplete"), logan.F{"deployment": name})
		}
	}
	return table, nil
}

func BuiltinDeployments() DeploymentTable {
	table, err := ParseDeploymentTable(builtinDeployments)
	if err != nil {
		panic(errors.Wrap(err, "built-in deployment table is broken"))
	}
	return table
}

func (t DeploymentTable) Asset(symbol string) (Asset, bool) {
	a, ok := t.Assets[strings.ToUpper(strings.TrimSpace(symbol))]
	return a, ok
}

func (t DeploymentTable) Deployment(name string) (DeploymentEntry, bool) {
	d, ok := t.Deployments[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}
