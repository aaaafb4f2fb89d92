package signer

import (
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/usdtb-otc/mint-svc/internal/order"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Signer holds the order signing key. It never prints the key itself.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

func New(key *ecdsa.PrivateKey) *Signer {
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

func FromHex(raw string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(raw), "0x"))
	if err != nil {
		// the parse error may echo key material
		return nil, errors.New("private key is not a valid secp256k1 hex key")
	}
	return New(key), nil
}

func (s *Signer) Address() common.Address {
	return s.address
}

func (s *Signer) PrivateKey() *ecdsa.PrivateKey {
	return s.key
}

func (s *Signer) String() string {
	return "signer(" + s.address.Hex() + ")"
}

func (s *Signer) GoString() string {
	return s.String()
}

// SignDigest signs the digest as is. Prefixing it as a personal message
// would produce a signature the minting contract rejects. A raw key can only
// produce EIP712 signatures, EIP1271 ones come from the benefactor contract.
func (s *Signer) SignDigest(digest common.Hash) (order.Signature, error) {
	raw, err := crypto.Sign(digest.Bytes(), s.key)
	if err != nil {
		return order.Signature{}, order.ProtocolViolation(errors.Wrap(err, "failed to sign digest"))
	}
	if len(raw) != order.SignatureLength {
		return order.Signature{}, order.ProtocolViolation(errors.From(errors.New("unexpected signature length"), logan.F{
			"length": len(raw),
		}))
	}

	sig := order.Signature{Scheme: order.EIP712}
	copy(sig.Bytes[:], raw)
	sig.Bytes[64] += 27
	return sig, nil
}

// Recover returns the address that produced sig over digest.
func Recover(digest common.Hash, sig order.Signature) (common.Address, error) {
	raw := make([]byte, order.SignatureLength)
	copy(raw, sig.Bytes[:])
	switch v := raw[64]; v {
	case 27, 28:
		raw[64] = v - 27
	default:
		return common.Address{}, errors.From(errors.New("invalid recovery id"), logan.F{"v": v})
	}

	pub, err := crypto.SigToPub(digest.Bytes(), raw)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to recover public key")
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verify checks that sig over digest was produced by expected.
func Verify(digest common.Hash, sig order.Signature, expected common.Address) error {
	got, err := Recover(digest, sig)
	if err != nil {
		return order.ProtocolViolation(err)
	}
	if got != expected {
		return order.ProtocolViolation(errors.From(errors.New("signature recovers to another address"), logan.F{
			"recovered": got.Hex(),
			"expected":  expected.Hex(),
		}))
	}
	return nil
}
