package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/usdtb-otc/mint-svc/internal/order"
)

const erc20JSON = `[
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable",
	 "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]}
]`

// Component names only affect how the tuple maps to orderTuple, the
// selector and the encoding are the same for every deployment.
const mintingJSON = `[
	{"type":"function","name":"hashOrder","stateMutability":"view",
	 "inputs":[{"name":"order","type":"tuple","components":[
		{"name":"order_id","type":"string"},
		{"name":"order_type","type":"uint8"},
		{"name":"expiry","type":"uint120"},
		{"name":"nonce","type":"uint128"},
		{"name":"benefactor","type":"address"},
		{"name":"beneficiary","type":"address"},
		{"name":"collateral_asset","type":"address"},
		{"name":"collateral_amount","type":"uint128"},
		{"name":"settlement_amount","type":"uint128"}
	 ]}],
	 "outputs":[{"name":"","type":"bytes32"}]}
]`

var (
	erc20ABI   = mustParseABI(erc20JSON)
	mintingABI = mustParseABI(mintingJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

type orderTuple struct {
	OrderId          string         `abi:"order_id"`
	OrderType        uint8          `abi:"order_type"`
	Expiry           *big.Int       `abi:"expiry"`
	Nonce            *big.Int       `abi:"nonce"`
	Benefactor       common.Address `abi:"benefactor"`
	Beneficiary      common.Address `abi:"beneficiary"`
	CollateralAsset  common.Address `abi:"collateral_asset"`
	CollateralAmount *big.Int       `abi:"collateral_amount"`
	SettlementAmount *big.Int       `abi:"settlement_amount"`
}

func toTuple(o order.Order) orderTuple {
	return orderTuple{
		OrderId:          o.ID,
		OrderType:        o.Type.Uint8(),
		Expiry:           new(big.Int).SetUint64(o.Expiry),
		Nonce:            o.Nonce,
		Benefactor:       o.Benefactor,
		Beneficiary:      o.Beneficiary,
		CollateralAsset:  o.CollateralAsset,
		CollateralAmount: o.CollateralAmount,
		SettlementAmount: o.SettlementAmount,
	}
}
