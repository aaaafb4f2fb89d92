package allowance

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/usdtb-otc/mint-svc/internal/order"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Token interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (*types.Receipt, error)
}

// Manager keeps the minting contract allowed to pull the benefactor's
// tokens. Allowance is read from chain every time, nothing is cached.
type Manager struct {
	log      *logan.Entry
	token    Token
	infinite bool
}

func New(log *logan.Entry, token Token, infinite bool) *Manager {
	return &Manager{log: log, token: token, infinite: infinite}
}

func (m *Manager) Current(ctx context.Context, owner, token, spender common.Address) (*big.Int, error) {
	current, err := m.token.Allowance(ctx, token, owner, spender)
	if err != nil {
		if order.KindOf(err) == order.KindChainRead {
			return nil, err
		}
		return nil, order.ChainReadError(errors.Wrap(err, "failed to get allowance"))
	}
	return current, nil
}

// Ensure approves spender for required tokens unless the allowance already
// covers it. The receipt is nil when no transaction was needed.
func (m *Manager) Ensure(ctx context.Context, owner, token, spender common.Address, required *big.Int) (*types.Receipt, error) {
	fields := logan.F{
		"owner":    owner.Hex(),
		"token":    token.Hex(),
		"spender":  spender.Hex(),
		"required": required.String(),
	}

	current, err := m.Current(ctx, owner, token, spender)
	if err != nil {
		return nil, err
	}
	if current.Cmp(required) >= 0 {
		m.log.WithFields(fields).WithField("allowance", current.String()).Debug("Allowance is sufficient")
		return nil, nil
	}

	amount := new(big.Int).Set(required)
	if m.infinite {
		amount = new(big.Int).Set(math.MaxBig256)
	}
	m.log.WithFields(fields).WithField("amount", amount.String()).Info("Approving minting contract")

	receipt, err := m.token.Approve(ctx, token, spender, amount)
	if err != nil {
		if order.KindOf(err) == order.KindApprovalFailed {
			return receipt, err
		}
		return receipt, order.ApprovalFailed(errors.Wrap(err, "failed to approve", fields))
	}

	m.log.WithFields(fields).WithField("tx", receipt.TxHash.Hex()).Info("Approval confirmed")
	return receipt, nil
}
