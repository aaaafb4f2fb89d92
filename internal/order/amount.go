package order

import (
	"encoding/json"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const (
	maxAmountLength = 128
	// uint128 has 39 decimal digits
	maxAmountExponent = 39
)

// ParseAmount reads a smallest-unit amount from a JSON number or string.
// Scientific notation is accepted as long as the value is integral.
func ParseAmount(raw json.RawMessage) (*big.Int, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return nil, errors.New("amount is missing")
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, errors.Wrap(err, "failed to unquote amount")
		}
		text = strings.TrimSpace(s)
	}

	if len(text) > maxAmountLength {
		return nil, errors.From(errors.New("amount is too long"), logan.F{"length": len(text)})
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse amount", logan.F{"amount": text})
	}
	// rescaling costs 10^|exponent|, keep it within what uint128 can need
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return nil, errors.From(errors.New("amount exponent is out of range"), logan.F{"amount": text})
	}
	if !d.Equal(d.Truncate(0)) {
		return nil, errors.From(errors.New("amount is not integral"), logan.F{"amount": text})
	}
	if d.Sign() <= 0 {
		return nil, errors.From(errors.New("amount must be positive"), logan.F{"amount": text})
	}

	v := d.BigInt()
	if v.Cmp(maxUint128) > 0 {
		return nil, errors.From(errors.New("amount does not fit uint128"), logan.F{"amount": text})
	}
	return v, nil
}

// WholeUnits converts a smallest-unit balance into whole token units,
// rounding down.
func WholeUnits(balance *big.Int, decimals int32) int64 {
	if balance == nil || balance.Sign() <= 0 {
		return 0
	}
	return decimal.NewFromBigInt(balance, -decimals).Floor().IntPart()
}

// FormatUnits renders a smallest-unit amount as a decimal token amount.
func FormatUnits(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}
