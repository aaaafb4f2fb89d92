package config

import (
	"time"

	"github.com/usdtb-otc/mint-svc/internal/order"
	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Allowance struct {
	// Disabled skips allowance management, e.g. when a multisig benefactor
	// approves on its own.
	Disabled       bool
	Infinite       bool
	ConfirmTimeout time.Duration
}

const defaultConfirmTimeout = 3 * time.Minute

func (c *config) Allowance() Allowance {
	return c.allowanceOnce.Do(func() interface{} {
		var cfg struct {
			Disabled       bool          `fig:"disabled"`
			Infinite       bool          `fig:"infinite"`
			ConfirmTimeout time.Duration `fig:"confirm_timeout"`
		}
		err := figure.Out(&cfg).
			From(c.section("allowance")).
			Please()
		if err != nil {
			panic(order.ConfigError(errors.Wrap(err, "failed to figure out allowance")))
		}
		if cfg.ConfirmTimeout == 0 {
			cfg.ConfirmTimeout = defaultConfirmTimeout
		}
		return Allowance(cfg)
	}).(Allowance)
}
