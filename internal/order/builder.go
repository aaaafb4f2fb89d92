package order

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const DefaultTTL = 60 * time.Second

type Terms struct {
	Side            Side
	Benefactor      common.Address
	Beneficiary     common.Address
	CollateralAsset common.Address
}

// Accept checks that q was quoted for these terms and carries both amounts.
func (t Terms) Accept(q Quote) error {
	if q.Side != t.Side {
		return ProtocolViolation(errors.From(errors.New("quote side does not match requested side"), logan.F{
			"quote_side":     q.Side.String(),
			"requested_side": t.Side.String(),
		}))
	}
	if q.CollateralAmount == nil || q.SettlementAmount == nil {
		return ProtocolViolation(errors.New("quote has no amounts"))
	}
	return nil
}

// PulledAmount is what the minting contract will transfer from the
// benefactor once q is settled: collateral for MINT, settlement for REDEEM.
func (t Terms) PulledAmount(q Quote) *big.Int {
	if t.Side == Redeem {
		return q.SettlementAmount
	}
	return q.CollateralAmount
}

type Builder struct {
	nonces NonceSource
	ttl    time.Duration
	now    func() time.Time
}

func NewBuilder(nonces NonceSource, ttl time.Duration) *Builder {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Builder{nonces: nonces, ttl: ttl, now: time.Now}
}

func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build turns a quote into an order with a fresh expiry and nonce. Amounts
// are copied from the quote as they are.
func (b *Builder) Build(ctx context.Context, q Quote, terms Terms) (Order, error) {
	if err := terms.Accept(q); err != nil {
		return Order{}, err
	}

	expiry := uint64(b.now().Add(b.ttl).Unix())
	nonce, err := b.nonces.Next(ctx, expiry)
	if err != nil {
		return Order{}, errors.Wrap(err, "failed to get order nonce")
	}

	o := Order{
		ID:               q.ID,
		Type:             terms.Side,
		Expiry:           expiry,
		Nonce:            nonce,
		Benefactor:       terms.Benefactor,
		Beneficiary:      terms.Beneficiary,
		CollateralAsset:  terms.CollateralAsset,
		CollateralAmount: new(big.Int).Set(q.CollateralAmount),
		SettlementAmount: new(big.Int).Set(q.SettlementAmount),
	}
	if err := o.Validate(); err != nil {
		return Order{}, ProtocolViolation(errors.Wrap(err, "built order is invalid", logan.F{"order_id": o.ID}))
	}
	return o, nil
}
