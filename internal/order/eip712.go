package order

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Hasher interface {
	HashOrder(ctx context.Context, o Order) (common.Hash, error)
}

type Domain struct {
	Name              string
	Version           string
	ChainID           int64
	VerifyingContract common.Address
}

// TypedDataHasher computes the EIP-712 digest the minting contract
// recomputes in verifyOrder. apitypes only knows a fixed set of integer
// widths, so the domain goes through it and the order struct, which uses
// uint120, is encoded word by word.
type TypedDataHasher struct {
	domainSeparator common.Hash
	typeHash        common.Hash
	args            abi.Arguments
}

func NewTypedDataHasher(domain Domain, schema Schema) *TypedDataHasher {
	return &TypedDataHasher{
		domainSeparator: domainSeparator(domain),
		typeHash:        crypto.Keccak256Hash([]byte(TypeString(schema))),
		args:            orderArguments(),
	}
}

// domainSeparator is zero when the domain cannot be hashed, HashOrder
// reports it then.
func domainSeparator(domain Domain) common.Hash {
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
		},
		PrimaryType: "EIP712Domain",
		Domain: apitypes.TypedDataDomain{
			Name:              domain.Name,
			Version:           domain.Version,
			ChainId:           math.NewHexOrDecimal256(domain.ChainID),
			VerifyingContract: domain.VerifyingContract.Hex(),
		},
	}
	hash, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return common.Hash{}
	}
	return common.BytesToHash(hash)
}

func mustNewType(name string) abi.Type {
	typ, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

func orderArguments() abi.Arguments {
	b32, addr, u128 := mustNewType("bytes32"), mustNewType("address"), mustNewType("uint128")
	return abi.Arguments{
		{Type: b32},                    // type hash
		{Type: b32},                    // keccak256(order_id)
		{Type: mustNewType("uint8")},   // order_type
		{Type: mustNewType("uint120")}, // expiry
		{Type: u128},                   // nonce
		{Type: addr},                   // benefactor
		{Type: addr},                   // beneficiary
		{Type: addr},                   // collateral_asset
		{Type: u128},                   // collateral_amount
		{Type: u128},                   // settlement amount
	}
}

func (h *TypedDataHasher) HashOrder(_ context.Context, o Order) (common.Hash, error) {
	if err := o.Validate(); err != nil {
		return common.Hash{}, ProtocolViolation(errors.Wrap(err, "invalid order"))
	}
	if h.domainSeparator == (common.Hash{}) {
		return common.Hash{}, ProtocolViolation(errors.New("failed to hash EIP-712 domain"))
	}

	encoded, err := h.args.Pack(
		h.typeHash,
		crypto.Keccak256Hash([]byte(o.ID)),
		o.Type.Uint8(),
		new(big.Int).SetUint64(o.Expiry),
		o.Nonce,
		o.Benefactor,
		o.Beneficiary,
		o.CollateralAsset,
		o.CollateralAmount,
		o.SettlementAmount,
	)
	if err != nil {
		return common.Hash{}, ProtocolViolation(errors.Wrap(err, "failed to encode order struct"))
	}

	raw := make([]byte, 0, 66)
	raw = append(raw, 0x19, 0x01)
	raw = append(raw, h.domainSeparator.Bytes()...)
	raw = append(raw, crypto.Keccak256(encoded)...)
	return crypto.Keccak256Hash(raw), nil
}

// TypeString is the canonical Order type string for the schema.
func TypeString(schema Schema) string {
	return "Order(string order_id,uint8 order_type,uint120 expiry,uint128 nonce," +
		"address benefactor,address beneficiary,address collateral_asset," +
		"uint128 collateral_amount,uint128 " + schema.settlementField() + ")"
}

// CheckedHasher asks every hasher for a digest and fails when they
// disagree.
type CheckedHasher struct {
	hashers []Hasher
}

func NewCheckedHasher(hashers ...Hasher) *CheckedHasher {
	return &CheckedHasher{hashers: hashers}
}

func (h *CheckedHasher) HashOrder(ctx context.Context, o Order) (common.Hash, error) {
	var digest common.Hash
	for i, hasher := range h.hashers {
		d, err := hasher.HashOrder(ctx, o)
		if err != nil {
			return common.Hash{}, err
		}
		if i > 0 && d != digest {
			return common.Hash{}, ProtocolViolation(errors.Errorf("order hash mismatch: %s != %s", d.Hex(), digest.Hex()))
		}
		digest = d
	}
	if len(h.hashers) == 0 {
		return common.Hash{}, ProtocolViolation(errors.New("no order hasher configured"))
	}
	return digest, nil
}

var _ Hasher = (*TypedDataHasher)(nil)
var _ Hasher = (*CheckedHasher)(nil)
