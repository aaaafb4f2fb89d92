package requests

import (
	"bytes"
	"encoding/json"

	"github.com/usdtb-otc/mint-svc/internal/order"
)

// Order is the body of the order endpoint. Keys keep the struct field
// order and amounts are written as bare integers.
type Order struct {
	order  order.Order
	schema order.Schema
}

func NewOrder(o order.Order, schema order.Schema) Order {
	return Order{order: o, schema: schema}
}

func (r Order) MarshalJSON() ([]byte, error) {
	settlementField := r.schema.SettlementField
	if settlementField == "" {
		settlementField = "usdtb_amount"
	}

	fields := []struct {
		key   string
		value interface{}
	}{
		{"order_id", r.order.ID},
		{"order_type", r.order.Type.String()},
		{"expiry", r.order.Expiry},
		{"nonce", json.Number(r.order.Nonce.String())},
		{"benefactor", r.order.Benefactor.Hex()},
		{"beneficiary", r.order.Beneficiary.Hex()},
		{"collateral_asset", r.order.CollateralAsset.Hex()},
		{"collateral_amount", json.Number(r.order.CollateralAmount.String())},
		{settlementField, json.Number(r.order.SettlementAmount.String())},
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
