package config

import (
	"os"

	"github.com/usdtb-otc/mint-svc/internal/order"
	"github.com/usdtb-otc/mint-svc/internal/signer"
	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

func (c *config) Signer() *signer.Signer {
	return c.signerOnce.Do(func() interface{} {
		var cfg struct {
			PrivateKey string `fig:"private_key"`
		}
		err := figure.Out(&cfg).
			From(c.section("signer")).
			Please()
		if err != nil {
			panic(order.ConfigError(errors.Wrap(err, "failed to figure out signer")))
		}

		if cfg.PrivateKey == "" {
			cfg.PrivateKey = os.Getenv("PRIVATE_KEY")
		}
		if cfg.PrivateKey == "" {
			panic(order.ConfigError(errors.New("private key is not set, configure signer.private_key or PRIVATE_KEY")))
		}

		s, err := signer.FromHex(cfg.PrivateKey)
		if err != nil {
			panic(order.ConfigError(err))
		}
		return s
	}).(*signer.Signer)
}
