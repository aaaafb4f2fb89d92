package config

import (
	"gitlab.com/distributed_lab/kit/comfig"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/kit/pgdb"

	"github.com/usdtb-otc/mint-svc/internal/signer"
)

type Config interface {
	comfig.Logger
	pgdb.Databaser

	Network() Network
	RFQ() RFQ
	Deployment() Deployment
	Minter() Minter
	Allowance() Allowance
	Signer() *signer.Signer
	Metrics() Metrics
}

type config struct {
	comfig.Logger
	pgdb.Databaser
	getter kv.Getter

	networkOnce    comfig.Once
	rfqOnce        comfig.Once
	deploymentOnce comfig.Once
	minterOnce     comfig.Once
	allowanceOnce  comfig.Once
	signerOnce     comfig.Once
	metricsOnce    comfig.Once
}

func New(getter kv.Getter) Config {
	return &config{
		getter:    getter,
		Databaser: pgdb.NewDatabaser(getter),
		Logger:    comfig.NewLogger(getter, comfig.LoggerOpts{}),
	}
}

// section returns an empty map for absent optional sections.
func (c *config) section(key string) map[string]interface{} {
	raw, err := c.getter.GetStringMap(key)
	if err != nil || raw == nil {
		return map[string]interface{}{}
	}
	return raw
}
