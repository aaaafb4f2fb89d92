package service

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/usdtb-otc/mint-svc/internal/data"
	"github.com/usdtb-otc/mint-svc/internal/order"
	"github.com/usdtb-otc/mint-svc/internal/rfq"
	"github.com/usdtb-otc/mint-svc/internal/signer"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
	"gitlab.com/distributed_lab/running"
)

type State string

const (
	StateCheckBalance State = "CHECK_BALANCE"
	StateSleepShort   State = "SLEEP_SHORT"
	StateQuote        State = "QUOTE"
	StateBuild        State = "BUILD"
	StateSign         State = "SIGN"
	StateSubmit       State = "SUBMIT"
	StateSleepCycle   State = "SLEEP_CYCLE"
)

type balanceReader interface {
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
}

type quoter interface {
	RequestQuote(ctx context.Context, req rfq.QuoteRequest) (order.Quote, error)
}

type submitter interface {
	SubmitOrder(ctx context.Context, o order.Order, sig order.Signature) (string, error)
}

type allowanceEnsurer interface {
	Ensure(ctx context.Context, owner, token, spender common.Address, required *big.Int) (*types.Receipt, error)
}

type digestSigner interface {
	SignDigest(digest common.Hash) (order.Signature, error)
	Address() common.Address
}

type params struct {
	pair string
	// token is both the balance that is watched and the one the minting
	// contract pulls: collateral for MINT, settlement token for REDEEM.
	token       common.Address
	decimals    int32
	terms       order.Terms
	minting     common.Address
	minSize     int64
	maxSize     int64
	reserve     int64
	idlePeriod  time.Duration
	cyclePeriod time.Duration
	maxBackoff  time.Duration
	txLink      func(tx string) string
	// once makes a low balance end the cycle instead of waiting.
	once bool
}

// periods gives the sleep after a finished cycle and the backoff range
// after a failed one.
func (p params) periods() (normal, minAbnormal, maxAbnormal time.Duration) {
	maxAbnormal = p.maxBackoff
	if maxAbnormal < p.cyclePeriod {
		maxAbnormal = p.cyclePeriod
	}
	return p.cyclePeriod, p.cyclePeriod, maxAbnormal
}

type loopFunc func(ctx context.Context, log running.Logger, name string, runner func(context.Context) error,
	normalPeriod, minAbnormalPeriod, maxAbnormalPeriod time.Duration)

type minter struct {
	log       *logan.Entry
	balances  balanceReader
	quotes    quoter
	orders    submitter
	allowance allowanceEnsurer
	hasher    order.Hasher
	signer    digestSigner
	builder   *order.Builder
	journal   data.Submissions
	metrics   *metrics
	params    params

	loop    loopFunc
	sleep   func(ctx context.Context, d time.Duration) bool
	now     func() time.Time
	onState func(State)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (m *minter) enter(log *logan.Entry, s State) {
	log.WithField("state", string(s)).Debug("Entering state")
	if m.metrics != nil {
		m.metrics.transitions.WithLabelValues(string(s)).Inc()
	}
	if m.onState != nil {
		m.onState(s)
	}
}

func (m *minter) outcome(outcome string) {
	if m.metrics != nil {
		m.metrics.cycles.WithLabelValues(outcome).Inc()
	}
}

// cycle runs one lifecycle from balance check to submission. ctx is only
// consulted while sleeping so a shutdown never interrupts a submission,
// external calls are bounded by their own timeouts.
func (m *minter) cycle(ctx context.Context) error {
	log := m.log.WithField("cycle_id", uuid.NewString())
	work := context.Background()
	defer m.enter(log, StateSleepCycle)

	size, err := m.waitForBalance(ctx, work, log)
	if err != nil {
		return m.fail(log, err)
	}
	if size == 0 {
		return nil
	}

	m.enter(log, StateQuote)
	quote, err := m.quotes.RequestQuote(work, rfq.QuoteRequest{
		Pair:       m.params.pair,
		Side:       m.params.terms.Side,
		Size:       size,
		Benefactor: m.params.terms.Benefactor,
	})
	if err != nil {
		return m.fail(log, err)
	}
	log = log.WithField("order_id", quote.ID)

	if err := m.params.terms.Accept(quote); err != nil {
		return m.fail(log, err)
	}
	// approval may take minutes, expiry is only fixed once it is done
	if err := m.ensureAllowance(work, log, m.params.terms.PulledAmount(quote)); err != nil {
		return m.fail(log, err)
	}

	m.enter(log, StateBuild)
	o, err := m.builder.Build(work, quote, m.params.terms)
	if err != nil {
		return m.fail(log, err)
	}

	m.enter(log, StateSign)
	sig, err := m.sign(work, o)
	if err != nil {
		return m.fail(log, err)
	}

	if now := m.now(); o.Expiry <= uint64(now.Unix()) {
		return m.fail(log, order.ProtocolViolation(errors.From(errors.New("order expired before submission"), logan.F{
			"expiry": o.Expiry,
			"now":    now.Unix(),
		})))
	}

	m.enter(log, StateSubmit)
	tx, err := m.orders.SubmitOrder(work, o, sig)
	m.record(log, o, tx, err)

	if err != nil {
		switch kind := order.KindOf(err); kind {
		case order.KindOrderRejected, order.KindTransport:
			log.WithError(err).WithField("kind", kind.String()).Error("Order was not accepted")
			m.outcome(kind.String())
			return nil
		default:
			return m.fail(log, err)
		}
	}

	log.WithFields(logan.F{
		"tx":       tx,
		"explorer": m.params.txLink(tx),
	}).Info("Order submitted")
	m.outcome(data.SubmissionSettled)
	if m.metrics != nil {
		m.metrics.lastSettled.SetToCurrentTime()
	}
	return nil
}

// waitForBalance returns the quote size in whole units, or zero when the
// wait was interrupted.
func (m *minter) waitForBalance(ctx, work context.Context, log *logan.Entry) (int64, error) {
	p := m.params
	for {
		m.enter(log, StateCheckBalance)
		balance, err := m.balances.BalanceOf(work, p.token, p.terms.Benefactor)
		if err != nil {
			if order.KindOf(err) == order.KindUnknown {
				err = order.ChainReadError(err)
			}
			return 0, err
		}

		available := order.WholeUnits(balance, p.decimals) - p.reserve
		fields := logan.F{"balance": available, "min_size": p.minSize}
		if available >= p.minSize {
			size := available
			if size > p.maxSize {
				size = p.maxSize
			}
			log.WithFields(fields).WithField("size", size).Info("Balance is sufficient")
			return size, nil
		}

		log.WithFields(fields).Info("Balance below minimum")
		if p.once {
			m.outcome("idle")
			return 0, nil
		}
		m.enter(log, StateSleepShort)
		if !m.sleep(ctx, p.idlePeriod) {
			return 0, nil
		}
	}
}

func (m *minter) ensureAllowance(ctx context.Context, log *logan.Entry, required *big.Int) error {
	if m.allowance == nil {
		return nil
	}
	receipt, err := m.allowance.Ensure(ctx, m.params.terms.Benefactor, m.params.token, m.params.minting, required)
	if err != nil {
		return err
	}
	if receipt != nil {
		log.WithField("tx", m.params.txLink(receipt.TxHash.Hex())).Info("Minting contract approved")
		if m.metrics != nil {
			m.metrics.approvals.Inc()
		}
	}
	return nil
}

func (m *minter) sign(ctx context.Context, o order.Order) (order.Signature, error) {
	digest, err := m.hasher.HashOrder(ctx, o)
	if err != nil {
		return order.Signature{}, err
	}
	sig, err := m.signer.SignDigest(digest)
	if err != nil {
		return order.Signature{}, err
	}
	if err := signer.Verify(digest, sig, m.signer.Address()); err != nil {
		return order.Signature{}, err
	}
	return sig, nil
}

func (m *minter) record(log *logan.Entry, o order.Order, tx string, submitErr error) {
	if m.journal == nil {
		return
	}

	status := data.SubmissionSettled
	var message string
	if e := order.AsError(submitErr); e != nil {
		status = data.SubmissionTransport
		if e.Kind == order.KindOrderRejected {
			status = data.SubmissionRejected
		}
		message = e.Message
		if message == "" {
			message = submitErr.Error()
		}
	} else if submitErr != nil {
		status = data.SubmissionTransport
		message = submitErr.Error()
	}

	err := m.journal.Insert(data.Submission{
		OrderID:          o.ID,
		Side:             o.Type.String(),
		Nonce:            o.Nonce.String(),
		Expiry:           int64(o.Expiry),
		Benefactor:       o.Benefactor.Hex(),
		CollateralAsset:  o.CollateralAsset.Hex(),
		CollateralAmount: o.CollateralAmount.String(),
		SettlementAmount: o.SettlementAmount.String(),
		Status:           status,
		Tx:               tx,
		Message:          message,
		CreatedAt:        time.Now().UTC(),
	})
	if err != nil {
		log.WithError(err).Warn("Failed to record submission")
	}
}

// fail logs the error by kind and hands it to the runner, which sleeps with
// backoff before the next cycle.
func (m *minter) fail(log *logan.Entry, err error) error {
	kind := order.KindOf(err)
	m.outcome(kind.String())
	entry := log.WithError(err).WithField("kind", kind.String())
	if kind == order.KindProtocolViolation {
		entry.Error("Protocol violation, order discarded")
	} else {
		entry.Warn("Cycle failed")
	}
	return err
}
