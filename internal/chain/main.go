package chain

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/usdtb-otc/mint-svc/internal/order"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Backend is the part of ethclient.Client the service talks to.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

var _ Backend = (*ethclient.Client)(nil)

type Client struct {
	backend        Backend
	chainID        *big.Int
	key            *ecdsa.PrivateKey
	minting        common.Address
	requestTimeout time.Duration
	confirmTimeout time.Duration
}

type Opts struct {
	ChainID        int64
	Key            *ecdsa.PrivateKey
	Minting        common.Address
	RequestTimeout time.Duration
	ConfirmTimeout time.Duration
}

const (
	defaultRequestTimeout = 10 * time.Second
	defaultConfirmTimeout = 3 * time.Minute
)

func New(backend Backend, opts Opts) *Client {
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.ConfirmTimeout == 0 {
		opts.ConfirmTimeout = defaultConfirmTimeout
	}
	return &Client{
		backend:        backend,
		chainID:        big.NewInt(opts.ChainID),
		key:            opts.Key,
		minting:        opts.Minting,
		requestTimeout: opts.RequestTimeout,
		confirmTimeout: opts.ConfirmTimeout,
	}
}

func (c *Client) call(ctx context.Context, address common.Address, contract *bind.BoundContract, method string, args ...interface{}) ([]interface{}, error) {
	childCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var out []interface{}
	err := contract.Call(&bind.CallOpts{Context: childCtx}, &out, method, args...)
	if err != nil {
		return nil, order.ChainReadError(errors.Wrap(err, "failed to call contract", logan.F{
			"contract": address.Hex(),
			"method":   method,
		}))
	}
	if len(out) == 0 {
		return nil, order.ChainReadError(errors.From(errors.New("empty call result"), logan.F{
			"contract": address.Hex(),
			"method":   method,
		}))
	}
	return out, nil
}

func (c *Client) token(address common.Address) *bind.BoundContract {
	return bind.NewBoundContract(address, erc20ABI, c.backend, c.backend, c.backend)
}

func (c *Client) uintCall(ctx context.Context, token common.Address, method string, args ...interface{}) (*big.Int, error) {
	out, err := c.call(ctx, token, c.token(token), method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, order.ChainReadError(errors.From(errors.New("unexpected result type"), logan.F{"method": method}))
	}
	return v, nil
}

func (c *Client) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	return c.uintCall(ctx, token, "balanceOf", owner)
}

func (c *Client) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	return c.uintCall(ctx, token, "allowance", owner, spender)
}

// Approve sends an approve transaction from the signing key and waits until
// it is mined or confirmTimeout elapses.
func (c *Client) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (*types.Receipt, error) {
	fields := logan.F{"token": token.Hex(), "spender": spender.Hex(), "amount": amount.String()}

	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, order.ApprovalFailed(errors.Wrap(err, "failed to create transactor", fields))
	}
	sendCtx, cancelSend := context.WithTimeout(ctx, c.requestTimeout)
	defer cancelSend()
	opts.Context = sendCtx

	tx, err := c.token(token).Transact(opts, "approve", spender, amount)
	if err != nil {
		return nil, order.ApprovalFailed(errors.Wrap(err, "failed to send approve transaction", fields))
	}
	fields["tx"] = tx.Hash().Hex()

	waitCtx, cancelWait := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancelWait()
	receipt, err := bind.WaitMined(waitCtx, c.backend, tx)
	if err != nil {
		return nil, order.ApprovalFailed(errors.Wrap(err, "approve transaction was not mined in time", fields))
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, order.ApprovalFailed(errors.From(errors.New("approve transaction reverted"), fields))
	}
	return receipt, nil
}

// HashOrder asks the minting contract for the digest it verifies
// signatures against.
func (c *Client) HashOrder(ctx context.Context, o order.Order) (common.Hash, error) {
	if err := o.Validate(); err != nil {
		return common.Hash{}, order.ProtocolViolation(errors.Wrap(err, "invalid order"))
	}

	minting := bind.NewBoundContract(c.minting, mintingABI, c.backend, c.backend, c.backend)
	out, err := c.call(ctx, c.minting, minting, "hashOrder", toTuple(o))
	if err != nil {
		return common.Hash{}, err
	}
	digest, ok := out[0].([32]byte)
	if !ok {
		return common.Hash{}, order.ChainReadError(errors.New("unexpected hashOrder result type"))
	}
	return digest, nil
}

var _ order.Hasher = (*Client)(nil)
