package data

import (
	"math/big"
)

// Nonces is a strictly increasing per-signer counter that survives restarts.
type Nonces interface {
	Next() (*big.Int, error)
}
