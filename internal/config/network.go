package config

import (
	"math"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/usdtb-otc/mint-svc/internal/order"
	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Network struct {
	*ethclient.Client
	ChainID        int64
	RequestTimeout time.Duration
}

const defaultRequestTimeout = 10 * time.Second
const maxChainID int64 = math.MaxUint64/2 - 36

func (c *config) Network() Network {
	return c.networkOnce.Do(func() interface{} {
		var cfg struct {
			RPC            string        `fig:"rpc"`
			ChainID        int64         `fig:"chain_id"`
			RequestTimeout time.Duration `fig:"request_timeout"`
		}

		err := figure.Out(&cfg).
			From(c.section("network")).
			Please()
		if err != nil {
			panic(order.ConfigError(errors.Wrap(err, "failed to figure out network")))
		}

		if cfg.RPC == "" {
			cfg.RPC = os.Getenv("RPC_URL")
		}
		if cfg.RPC == "" {
			panic(order.ConfigError(errors.New("RPC endpoint is not set, configure network.rpc or RPC_URL")))
		}
		if cfg.ChainID == 0 {
			cfg.ChainID = c.Deployment().ChainID
		}
		if cfg.ChainID > maxChainID || cfg.ChainID <= 0 {
			panic(order.ConfigError(errors.New("chain_id value out of range due to EIP 2294")))
		}

		cli, err := ethclient.Dial(cfg.RPC)
		if err != nil {
			panic(order.ConfigError(errors.Wrap(err, "failed to connect to RPC provider")))
		}

		if cfg.RequestTimeout == 0 {
			cfg.RequestTimeout = defaultRequestTimeout
		}

		return Network{
			Client:         cli,
			ChainID:        cfg.ChainID,
			RequestTimeout: cfg.RequestTimeout,
		}
	}).(Network)
}
