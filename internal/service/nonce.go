package service

import (
	"context"
	"math/big"

	"github.com/usdtb-otc/mint-svc/internal/data"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type counterNonce struct {
	nonces data.Nonces
}

func (n counterNonce) Next(context.Context, uint64) (*big.Int, error) {
	v, err := n.nonces.Next()
	if err != nil {
		return nil, errors.Wrap(err, "failed to increment stored nonce")
	}
	return v, nil
}
