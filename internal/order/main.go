package order

import (
	"encoding/hex"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Side uint8

const (
	Mint Side = iota
	Redeem
)

func (s Side) String() string {
	if s == Redeem {
		return "REDEEM"
	}
	return "MINT"
}

func (s Side) Uint8() uint8 {
	return uint8(s)
}

func ParseSide(raw string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "MINT":
		return Mint, nil
	case "REDEEM":
		return Redeem, nil
	default:
		return 0, errors.From(errors.New("side must be MINT or REDEEM"), logan.F{"side": raw})
	}
}

type Quote struct {
	ID               string
	Side             Side
	CollateralAmount *big.Int
	SettlementAmount *big.Int
	ExpiresAt        *time.Time
}

type Order struct {
	ID               string
	Type             Side
	Expiry           uint64
	Nonce            *big.Int
	Benefactor       common.Address
	Beneficiary      common.Address
	CollateralAsset  common.Address
	CollateralAmount *big.Int
	SettlementAmount *big.Int
}

var (
	maxUint120 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 120), big.NewInt(1))
	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

// Validate checks that every field fits the width the settlement contract
// hashes it with.
func (o Order) Validate() error {
	if o.ID == "" {
		return errors.New("order id is empty")
	}
	if o.Type != Mint && o.Type != Redeem {
		return errors.From(errors.New("unknown order type"), logan.F{"order_type": uint8(o.Type)})
	}
	if o.Expiry == 0 || new(big.Int).SetUint64(o.Expiry).Cmp(maxUint120) > 0 {
		return errors.From(errors.New("expiry out of range"), logan.F{"expiry": o.Expiry})
	}
	for name, v := range map[string]*big.Int{
		"nonce":             o.Nonce,
		"collateral_amount": o.CollateralAmount,
		"settlement_amount": o.SettlementAmount,
	} {
		if v == nil || v.Sign() <= 0 || v.Cmp(maxUint128) > 0 {
			return errors.From(errors.New("value does not fit uint128"), logan.F{"field": name, "value": v})
		}
	}
	return nil
}

type SignatureScheme uint8

const (
	EIP712 SignatureScheme = iota
	EIP1271
)

func (s SignatureScheme) String() string {
	if s == EIP1271 {
		return "EIP1271"
	}
	return "EIP712"
}

const SignatureLength = 65

type Signature struct {
	Scheme SignatureScheme
	Bytes  [SignatureLength]byte
}

func (s Signature) Hex() string {
	return "0x" + hex.EncodeToString(s.Bytes[:])
}

// Schema carries the per-deployment name of the settlement amount field.
type Schema struct {
	SettlementField string
}

func (s Schema) settlementField() string {
	if s.SettlementField == "" {
		return "usdtb_amount"
	}
	return s.SettlementField
}
