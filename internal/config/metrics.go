package config

import (
	"github.com/usdtb-otc/mint-svc/internal/order"
	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Metrics struct {
	// Addr of the Prometheus listener, empty disables it.
	Addr string
}

func (c *config) Metrics() Metrics {
	return c.metricsOnce.Do(func() interface{} {
		var cfg struct {
			Addr string `fig:"addr"`
		}
		err := figure.Out(&cfg).
			From(c.section("metrics")).
			Please()
		if err != nil {
			panic(order.ConfigError(errors.Wrap(err, "failed to figure out metrics")))
		}
		return Metrics(cfg)
	}).(Metrics)
}
