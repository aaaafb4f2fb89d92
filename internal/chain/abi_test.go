package chain

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/usdtb-otc/mint-svc/internal/order"
)

func TestERC20Selectors(t *testing.T) {
	cases := map[string]string{
		"balanceOf": "70a08231",
		"allowance": "dd62ed3e",
		"approve":   "095ea7b3",
	}
	for name, want := range cases {
		m, ok := erc20ABI.Methods[name]
		if !ok {
			t.Fatalf("method %s is missing", name)
		}
		if got := hex.EncodeToString(m.ID); got != want {
			t.Fatalf("%s: got %s want %s", name, got, want)
		}
	}
}

func TestHashOrderSignature(t *testing.T) {
	m := mintingABI.Methods["hashOrder"]
	want := "hashOrder((string,uint8,uint120,uint128,address,address,address,uint128,uint128))"
	if m.Sig != want {
		t.Fatalf("got %s want %s", m.Sig, want)
	}
	if !bytes.Equal(m.ID, crypto.Keccak256([]byte(want))[:4]) {
		t.Fatalf("selector does not match signature")
	}
}

func TestHashOrderPacksTuple(t *testing.T) {
	o := order.Order{
		ID:               "abc",
		Type:             order.Redeem,
		Expiry:           1700000060,
		Nonce:            big.NewInt(42),
		Benefactor:       common.HexToAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4"),
		Beneficiary:      common.HexToAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4"),
		CollateralAsset:  common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		CollateralAmount: big.NewInt(30000000),
		SettlementAmount: big.NewInt(29970000),
	}
	data, err := mintingABI.Pack("hashOrder", toTuple(o))
	if err != nil {
		t.Fatalf("failed to pack: %v", err)
	}

	// selector, tuple offset, 9 head words, string length and one data word
	if want := 4 + 32 + 9*32 + 32 + 32; len(data) != want {
		t.Fatalf("got %d bytes want %d", len(data), want)
	}
	head := data[4+32:]
	if head[63] != 1 {
		t.Fatalf("order_type word is %x want 1", head[32:64])
	}
	if got := new(big.Int).SetBytes(head[7*32 : 8*32]); got.Int64() != 30000000 {
		t.Fatalf("collateral_amount word is %s", got)
	}
	if got := new(big.Int).SetBytes(head[8*32 : 9*32]); got.Int64() != 29970000 {
		t.Fatalf("settlement_amount word is %s", got)
	}
}
