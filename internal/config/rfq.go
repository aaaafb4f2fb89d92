package config

import (
	"net/http"
	"net/url"
	"time"

	"github.com/usdtb-otc/mint-svc/internal/order"
	"gitlab.com/distributed_lab/figure/v3"
	jsonapi "gitlab.com/distributed_lab/json-api-connector"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
	"gitlab.com/tokend/connectors/signed"
)

const (
	defaultQuoteTimeout  = 30 * time.Second
	minQuoteTimeout      = 5 * time.Second
	maxQuoteTimeout      = 60 * time.Second
	defaultOrderTimeout  = 60 * time.Second
	defaultQuoteInterval = time.Second
)

type RFQ struct {
	Endpoint      *url.URL
	Quotes        *jsonapi.Connector
	Orders        *jsonapi.Connector
	QuoteInterval time.Duration
}

func (c *config) RFQ() RFQ {
	return c.rfqOnce.Do(func() interface{} {
		var cfg struct {
			Endpoint      *url.URL      `fig:"endpoint"`
			QuoteTimeout  time.Duration `fig:"quote_timeout"`
			OrderTimeout  time.Duration `fig:"order_timeout"`
			QuoteInterval time.Duration `fig:"quote_interval"`
		}
		err := figure.Out(&cfg).
			From(c.section("rfq")).
			Please()
		if err != nil {
			panic(order.ConfigError(errors.Wrap(err, "failed to figure out rfq")))
		}

		if cfg.Endpoint == nil {
			cfg.Endpoint = c.Deployment().API
		}
		if cfg.QuoteTimeout == 0 {
			cfg.QuoteTimeout = defaultQuoteTimeout
		}
		if cfg.QuoteTimeout < minQuoteTimeout || cfg.QuoteTimeout > maxQuoteTimeout {
			panic(order.ConfigError(errors.From(errors.New("quote_timeout must be between 5s and 60s"), logan.F{
				"quote_timeout": cfg.QuoteTimeout.String(),
			})))
		}
		if cfg.OrderTimeout == 0 {
			cfg.OrderTimeout = defaultOrderTimeout
		}
		if cfg.OrderTimeout < defaultOrderTimeout {
			panic(order.ConfigError(errors.From(errors.New("order_timeout must be at least 60s"), logan.F{
				"order_timeout": cfg.OrderTimeout.String(),
			})))
		}
		if cfg.QuoteInterval == 0 {
			cfg.QuoteInterval = defaultQuoteInterval
		}

		return RFQ{
			Endpoint:      cfg.Endpoint,
			Quotes:        jsonapi.NewConnector(signed.NewClient(&http.Client{Timeout: cfg.QuoteTimeout}, cfg.Endpoint)),
			Orders:        jsonapi.NewConnector(signed.NewClient(&http.Client{Timeout: cfg.OrderTimeout}, cfg.Endpoint)),
			QuoteInterval: cfg.QuoteInterval,
		}
	}).(RFQ)
}
