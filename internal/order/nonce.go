package order

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"

	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// NonceSource hands out a nonce for an order that expires at expiry.
type NonceSource interface {
	Next(ctx context.Context, expiry uint64) (*big.Int, error)
}

type NonceStrategy string

const (
	NonceRandom  NonceStrategy = "random"
	NonceCounter NonceStrategy = "counter"
	NonceExpiry  NonceStrategy = "expiry"
)

func ParseNonceStrategy(raw string) (NonceStrategy, error) {
	switch s := NonceStrategy(strings.ToLower(strings.TrimSpace(raw))); s {
	case "":
		return NonceRandom, nil
	case NonceRandom, NonceCounter, NonceExpiry:
		return s, nil
	default:
		return "", errors.From(errors.New("unknown nonce strategy"), logan.F{"nonce": raw})
	}
}

type randomNonce struct{}

// RandomNonce draws uniformly from [1, 2^128).
func RandomNonce() NonceSource {
	return randomNonce{}
}

func (randomNonce) Next(context.Context, uint64) (*big.Int, error) {
	for {
		n, err := rand.Int(rand.Reader, new(big.Int).Add(maxUint128, big.NewInt(1)))
		if err != nil {
			return nil, errors.Wrap(err, "failed to read random nonce")
		}
		if n.Sign() > 0 {
			return n, nil
		}
	}
}

type expiryNonce struct{}

// ExpiryNonce reuses the expiry timestamp. Two orders built within the same
// second collide, so it is only kept for parity with older deployments.
func ExpiryNonce() NonceSource {
	return expiryNonce{}
}

func (expiryNonce) Next(_ context.Context, expiry uint64) (*big.Int, error) {
	return new(big.Int).SetUint64(expiry), nil
}
