package order

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	testContract = common.HexToAddress("0xa3DDBf92077b850E29C4805Df0a2459Ae048416a")
	testUSDC     = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	testWallet   = common.HexToAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4")
)

func testDomain() Domain {
	return Domain{Name: "USDtbMinting", Version: "1", ChainID: 1, VerifyingContract: testContract}
}

func testOrder() Order {
	return Order{
		ID:               "abc",
		Type:             Mint,
		Expiry:           1700000060,
		Nonce:            big.NewInt(42),
		Benefactor:       testWallet,
		Beneficiary:      testWallet,
		CollateralAsset:  testUSDC,
		CollateralAmount: big.NewInt(30000000),
		SettlementAmount: big.NewInt(29970000),
	}
}

func mustType(t *testing.T, name string) abi.Type {
	t.Helper()
	typ, err := abi.NewType(name, "", nil)
	if err != nil {
		t.Fatalf("failed to build abi type %s: %v", name, err)
	}
	return typ
}

// manualDigest encodes the domain and struct word by word, the way the
// minting contract does it in Solidity.
func manualDigest(t *testing.T, d Domain, o Order, schema Schema) common.Hash {
	t.Helper()
	b32, u256, addr := mustType(t, "bytes32"), mustType(t, "uint256"), mustType(t, "address")

	domainArgs := abi.Arguments{{Type: b32}, {Type: b32}, {Type: b32}, {Type: u256}, {Type: addr}}
	domainEncoded, err := domainArgs.Pack(
		crypto.Keccak256Hash([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)")),
		crypto.Keccak256Hash([]byte(d.Name)),
		crypto.Keccak256Hash([]byte(d.Version)),
		big.NewInt(d.ChainID),
		d.VerifyingContract,
	)
	if err != nil {
		t.Fatalf("failed to pack domain: %v", err)
	}

	structArgs := abi.Arguments{
		{Type: b32}, {Type: b32}, {Type: u256}, {Type: u256}, {Type: u256},
		{Type: addr}, {Type: addr}, {Type: addr}, {Type: u256}, {Type: u256},
	}
	structEncoded, err := structArgs.Pack(
		crypto.Keccak256Hash([]byte(TypeString(schema))),
		crypto.Keccak256Hash([]byte(o.ID)),
		big.NewInt(int64(o.Type)),
		new(big.Int).SetUint64(o.Expiry),
		o.Nonce,
		o.Benefactor,
		o.Beneficiary,
		o.CollateralAsset,
		o.CollateralAmount,
		o.SettlementAmount,
	)
	if err != nil {
		t.Fatalf("failed to pack order: %v", err)
	}

	raw := append([]byte{0x19, 0x01}, crypto.Keccak256(domainEncoded)...)
	raw = append(raw, crypto.Keccak256(structEncoded)...)
	return crypto.Keccak256Hash(raw)
}

func TestTypedDataHasherMatchesManualEncoding(t *testing.T) {
	for _, field := range []string{"usdtb_amount", "ustb_amount"} {
		schema := Schema{SettlementField: field}
		o := testOrder()

		got, err := NewTypedDataHasher(testDomain(), schema).HashOrder(context.Background(), o)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", field, err)
		}
		want := manualDigest(t, testDomain(), o, schema)
		if got != want {
			t.Fatalf("%s: got %s want %s", field, got.Hex(), want.Hex())
		}
	}
}

func TestTypedDataHasherKnownDigest(t *testing.T) {
	cases := map[string]string{
		"usdtb_amount": "0x5dbfc13887ee52d692509db6243ea8833e48ab4c24ba7c7918aff6fbaf3bb164",
		"ustb_amount":  "0xfed61cc8d0d17823f08fa3a56df8241eea515df350e93f45c941ec6c7675d513",
	}
	for field, want := range cases {
		got, err := NewTypedDataHasher(testDomain(), Schema{SettlementField: field}).HashOrder(context.Background(), testOrder())
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", field, err)
		}
		if got.Hex() != want {
			t.Fatalf("%s: got %s want %s", field, got.Hex(), want)
		}
	}
}

func TestDomainSeparator(t *testing.T) {
	want := "0x915033bac54e27a3f94a9b4258254fecfbbfac805909a044a9030a8416036083"
	if got := domainSeparator(testDomain()); got.Hex() != want {
		t.Fatalf("got %s want %s", got.Hex(), want)
	}
}

func TestTypedDataHasherIsDeterministic(t *testing.T) {
	h := NewTypedDataHasher(testDomain(), Schema{})
	first, err := h.HashOrder(context.Background(), testOrder())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := h.HashOrder(context.Background(), testOrder())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("hash changed between calls: %s vs %s", first.Hex(), second.Hex())
	}
}

func TestTypedDataHasherDependsOnEveryField(t *testing.T) {
	h := NewTypedDataHasher(testDomain(), Schema{})
	base, err := h.HashOrder(context.Background(), testOrder())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := common.HexToAddress("0x0000000000000000000000000000000000000001")
	mutations := map[string]func(*Order){
		"order_id":          func(o *Order) { o.ID = "abd" },
		"order_type":        func(o *Order) { o.Type = Redeem },
		"expiry":            func(o *Order) { o.Expiry++ },
		"nonce":             func(o *Order) { o.Nonce = big.NewInt(43) },
		"benefactor":        func(o *Order) { o.Benefactor = other },
		"beneficiary":       func(o *Order) { o.Beneficiary = other },
		"collateral_asset":  func(o *Order) { o.CollateralAsset = other },
		"collateral_amount": func(o *Order) { o.CollateralAmount = big.NewInt(30000001) },
		"settlement_amount": func(o *Order) { o.SettlementAmount = big.NewInt(29970001) },
		"swapped_amounts": func(o *Order) {
			o.CollateralAmount, o.SettlementAmount = o.SettlementAmount, o.CollateralAmount
		},
	}
	for name, mutate := range mutations {
		o := testOrder()
		mutate(&o)
		got, err := h.HashOrder(context.Background(), o)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if got == base {
			t.Fatalf("%s: hash did not change", name)
		}
	}
}

func TestTypedDataHasherDependsOnDomain(t *testing.T) {
	base, _ := NewTypedDataHasher(testDomain(), Schema{}).HashOrder(context.Background(), testOrder())

	d := testDomain()
	d.ChainID = 5
	other, err := NewTypedDataHasher(d, Schema{}).HashOrder(context.Background(), testOrder())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other == base {
		t.Fatalf("chain id does not affect the digest")
	}

	renamed, err := NewTypedDataHasher(testDomain(), Schema{SettlementField: "ustb_amount"}).HashOrder(context.Background(), testOrder())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if renamed == base {
		t.Fatalf("settlement field name does not affect the digest")
	}
}

func TestTypedDataHasherRejectsMalformedOrder(t *testing.T) {
	h := NewTypedDataHasher(testDomain(), Schema{})
	cases := map[string]func(*Order){
		"empty id":          func(o *Order) { o.ID = "" },
		"zero nonce":        func(o *Order) { o.Nonce = big.NewInt(0) },
		"nil amount":        func(o *Order) { o.CollateralAmount = nil },
		"amount too wide":   func(o *Order) { o.SettlementAmount = new(big.Int).Lsh(big.NewInt(1), 128) },
		"zero expiry":       func(o *Order) { o.Expiry = 0 },
		"unknown side":      func(o *Order) { o.Type = Side(7) },
		"negative quantity": func(o *Order) { o.CollateralAmount = big.NewInt(-1) },
	}
	for name, mutate := range cases {
		o := testOrder()
		mutate(&o)
		_, err := h.HashOrder(context.Background(), o)
		if KindOf(err) != KindProtocolViolation {
			t.Fatalf("%s: got %v want protocol violation", name, err)
		}
	}
}

func TestTypeStringFieldOrder(t *testing.T) {
	got := TypeString(Schema{SettlementField: "usdtb_amount"})
	want := "Order(string order_id,uint8 order_type,uint120 expiry,uint128 nonce,address benefactor," +
		"address beneficiary,address collateral_asset,uint128 collateral_amount,uint128 usdtb_amount)"
	if got != want {
		t.Fatalf("got %s want %s", got, want)
	}
	if !strings.HasSuffix(TypeString(Schema{SettlementField: "ustb_amount"}), "uint128 ustb_amount)") {
		t.Fatalf("settlement field is not substituted")
	}
}

type fixedHasher struct {
	digest common.Hash
	err    error
}

func (h fixedHasher) HashOrder(context.Context, Order) (common.Hash, error) {
	return h.digest, h.err
}

func TestCheckedHasher(t *testing.T) {
	a := common.HexToHash("0x01")
	b := common.HexToHash("0x02")

	got, err := NewCheckedHasher(fixedHasher{digest: a}, fixedHasher{digest: a}).HashOrder(context.Background(), testOrder())
	if err != nil || got != a {
		t.Fatalf("got %s, %v want %s", got.Hex(), err, a.Hex())
	}

	_, err = NewCheckedHasher(fixedHasher{digest: a}, fixedHasher{digest: b}).HashOrder(context.Background(), testOrder())
	if KindOf(err) != KindProtocolViolation {
		t.Fatalf("got %v want protocol violation", err)
	}

	_, err = NewCheckedHasher(fixedHasher{err: ChainReadError(errTest)}).HashOrder(context.Background(), testOrder())
	if KindOf(err) != KindChainRead {
		t.Fatalf("got %v want chain read error", err)
	}
}
