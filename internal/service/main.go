package service

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/usdtb-otc/mint-svc/internal/allowance"
	"github.com/usdtb-otc/mint-svc/internal/chain"
	"github.com/usdtb-otc/mint-svc/internal/config"
	"github.com/usdtb-otc/mint-svc/internal/data"
	"github.com/usdtb-otc/mint-svc/internal/data/postgres"
	"github.com/usdtb-otc/mint-svc/internal/order"
	"github.com/usdtb-otc/mint-svc/internal/rfq"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
	"gitlab.com/distributed_lab/running"
	"golang.org/x/time/rate"
)

func (m *minter) run(ctx context.Context) error {
	m.log.WithFields(logan.F{
		"pair":       m.params.pair,
		"side":       m.params.terms.Side.String(),
		"benefactor": m.params.terms.Benefactor.Hex(),
	}).Info("Service started")

	loop := m.loop
	if loop == nil {
		loop = running.WithBackOff
	}
	normal, minAbnormal, maxAbnormal := m.params.periods()
	loop(ctx, m.log, "mint-cycle", m.cycle, normal, minAbnormal, maxAbnormal)

	m.log.Info("Service stopped")
	return nil
}

// NewChain builds the chain client for the configured network and key.
func NewChain(cfg config.Config) *chain.Client {
	network := cfg.Network()
	return chain.New(network.Client, chain.Opts{
		ChainID:        network.ChainID,
		Key:            cfg.Signer().PrivateKey(),
		Minting:        cfg.Deployment().MintingContract,
		RequestTimeout: network.RequestTimeout,
		ConfirmTimeout: cfg.Allowance().ConfirmTimeout,
	})
}

type WatchedToken struct {
	Address  common.Address
	Decimals int32
	Symbol   string
}

// Watched returns the token whose balance drives the loop and which the
// minting contract pulls.
func Watched(cfg config.Config) WatchedToken {
	d, m := cfg.Deployment(), cfg.Minter()
	if m.Side == order.Redeem {
		return WatchedToken{Address: *d.SettlementToken, Decimals: d.SettlementDecimals, Symbol: d.Symbol}
	}
	return WatchedToken{Address: m.CollateralAsset, Decimals: m.CollateralDecimals, Symbol: m.CollateralSymbol}
}

func newMinter(cfg config.Config, once bool) *minter {
	log := cfg.Log()
	d, m, network := cfg.Deployment(), cfg.Minter(), cfg.Network()
	chainClient := NewChain(cfg)

	local := order.NewTypedDataHasher(order.Domain{
		Name:              d.DomainName,
		Version:           d.DomainVersion,
		ChainID:           network.ChainID,
		VerifyingContract: d.MintingContract,
	}, d.Schema)
	var hasher order.Hasher
	switch m.HashSource {
	case config.HashLocal:
		hasher = local
	case config.HashContract:
		hasher = chainClient
	default:
		hasher = order.NewCheckedHasher(local, chainClient)
	}
	log.WithField("type", order.TypeString(d.Schema)).WithField("hash_source", string(m.HashSource)).Debug("Order hashing configured")

	var nonces order.NonceSource
	switch m.Nonce {
	case order.NonceCounter:
		stored, err := postgres.NewNonces(cfg.DB(), cfg.Signer().Address().Hex(), uint64(time.Now().Unix()))
		if err != nil {
			panic(errors.Wrap(err, "failed to instantiate nonce DB API"))
		}
		nonces = counterNonce{nonces: stored}
	case order.NonceExpiry:
		log.Warn("Nonce reuses expiry, two orders within one second collide")
		nonces = order.ExpiryNonce()
	default:
		nonces = order.RandomNonce()
	}

	var journal data.Submissions
	if m.Journal {
		j, err := postgres.NewSubmissions(cfg.DB())
		if err != nil {
			panic(errors.Wrap(err, "failed to instantiate submissions DB API"))
		}
		journal = j
	}

	rfqCfg := cfg.RFQ()
	quotes := rfq.New(log, rfqCfg.Quotes, rfqCfg.Orders, rfq.Opts{
		Schema:  d.Schema,
		MaxSize: m.MaxSize,
		Limiter: rate.NewLimiter(rate.Every(rfqCfg.QuoteInterval), 1),
	})

	token := Watched(cfg)
	svc := &minter{
		log:      log,
		balances: chainClient,
		quotes:   quotes,
		orders:   quotes,
		hasher:   hasher,
		signer:   cfg.Signer(),
		builder:  order.NewBuilder(nonces, m.OrderTTL),
		journal:  journal,
		metrics:  newMetrics(),
		params: params{
			pair:     d.Pair(m.CollateralSymbol),
			token:    token.Address,
			decimals: token.Decimals,
			terms: order.Terms{
				Side:            m.Side,
				Benefactor:      m.Benefactor,
				Beneficiary:     m.Beneficiary,
				CollateralAsset: m.CollateralAsset,
			},
			minting:     d.MintingContract,
			minSize:     m.MinSize,
			maxSize:     m.MaxSize,
			reserve:     m.Reserve,
			idlePeriod:  m.IdlePeriod,
			cyclePeriod: m.CyclePeriod,
			maxBackoff:  m.MaxBackoff,
			txLink:      d.TxLink,
			once:        once,
		},
		sleep: sleepCtx,
		now:   time.Now,
	}
	if a := cfg.Allowance(); !a.Disabled {
		svc.allowance = allowance.New(log.WithField("token", token.Symbol), chainClient, a.Infinite)
	}
	if addr := cfg.Metrics().Addr; addr != "" {
		svc.metrics.serve(log, addr)
	}
	return svc
}

// Run drives cycles until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config) {
	if err := newMinter(cfg, false).run(ctx); err != nil {
		panic(err)
	}
}

// RunOnce executes a single cycle without waiting for balance.
func RunOnce(ctx context.Context, cfg config.Config) error {
	return newMinter(cfg, true).cycle(ctx)
}
