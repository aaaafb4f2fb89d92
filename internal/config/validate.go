package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/usdtb-otc/mint-svc/internal/order"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Validate evaluates every section once so a broken config stops the
// process before the first cycle. Section getters panic, the panic is
// turned into a ConfigError here.
func Validate(cfg Config) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			if asErr, ok := rvr.(error); ok {
				if order.KindOf(asErr) == order.KindConfig {
					err = asErr
					return
				}
				err = order.ConfigError(asErr)
				return
			}
			err = order.ConfigError(fmt.Errorf("%v", rvr))
		}
	}()

	cfg.Signer()
	cfg.Deployment()
	cfg.Minter()
	cfg.Allowance()
	cfg.RFQ()
	cfg.Network()
	cfg.Metrics()

	return CheckConsistency(cfg.Deployment(), cfg.Minter(), cfg.Allowance(), cfg.Signer().Address())
}

// CheckConsistency covers rules spanning several sections.
func CheckConsistency(d Deployment, m Minter, a Allowance, signerAddress common.Address) error {
	if m.Side == order.Redeem && d.SettlementToken == nil {
		return order.ConfigError(errors.From(errors.New("redeem requires deployment.settlement_token"), logan.F{
			"deployment": d.Name,
		}))
	}
	if m.HashSource != HashContract && d.DomainName == "" {
		return order.ConfigError(errors.From(errors.New("EIP-712 domain name is unknown, set deployment.domain_name or use hash_source: contract"), logan.F{
			"deployment":  d.Name,
			"hash_source": string(m.HashSource),
		}))
	}
	if !a.Disabled && m.Benefactor != signerAddress {
		return order.ConfigError(errors.From(errors.New("allowance can only be managed when the signer is the benefactor, set allowance.disabled"), logan.F{
			"benefactor": m.Benefactor.Hex(),
			"signer":     signerAddress.Hex(),
		}))
	}
	return nil
}
