package order

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"
	"time"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`30000000`, "30000000"},
		{`"29970000"`, "29970000"},
		{`3e7`, "30000000"},
		{`"2.997e7"`, "29970000"},
		{`30000000.0`, "30000000"},
		{`340282366920938463463374607431768211455`, "340282366920938463463374607431768211455"},
	}
	for _, tc := range cases {
		got, err := ParseAmount(json.RawMessage(tc.raw))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.raw, err)
		}
		if got.String() != tc.want {
			t.Fatalf("%s: got %s want %s", tc.raw, got, tc.want)
		}
	}
}

func TestParseAmountRejects(t *testing.T) {
	for _, raw := range []string{
		``, `null`, `"abc"`, `1.5`, `0`, `-10`, `{}`,
		`340282366920938463463374607431768211456`,
	} {
		if _, err := ParseAmount(json.RawMessage(raw)); err == nil {
			t.Fatalf("%q: expected error", raw)
		}
	}
}

func TestParseAmountHugeExponent(t *testing.T) {
	for _, raw := range []string{
		`"1e20000000"`, `1e20000000`, `"1e-20000000"`, `3e40`,
		`"` + strings.Repeat("9", 200) + `"`,
	} {
		start := time.Now()
		_, err := ParseAmount(json.RawMessage(raw))
		if err == nil {
			t.Fatalf("%.20s: expected error", raw)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Fatalf("%.20s: rejected after %s", raw, elapsed)
		}
	}
	if got, err := ParseAmount(json.RawMessage(`"3e38"`)); err != nil || got.String() != "3"+strings.Repeat("0", 38) {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestWholeUnits(t *testing.T) {
	cases := []struct {
		balance  *big.Int
		decimals int32
		want     int64
	}{
		{big.NewInt(30000000), 6, 30},
		{big.NewInt(30999999), 6, 30},
		{big.NewInt(999999), 6, 0},
		{big.NewInt(0), 6, 0},
		{nil, 6, 0},
		{new(big.Int).Mul(big.NewInt(50000000), big.NewInt(1000000)), 6, 50000000},
		{big.NewInt(7), 0, 7},
	}
	for _, tc := range cases {
		if got := WholeUnits(tc.balance, tc.decimals); got != tc.want {
			t.Fatalf("%v/10^%d: got %d want %d", tc.balance, tc.decimals, got, tc.want)
		}
	}
}

func TestFormatUnits(t *testing.T) {
	if got := FormatUnits(big.NewInt(29970000), 6); got != "29.97" {
		t.Fatalf("got %s want 29.97", got)
	}
	if got := FormatUnits(big.NewInt(30000000), 6); got != "30" {
		t.Fatalf("got %s want 30", got)
	}
	if got := FormatUnits(nil, 6); got != "0" {
		t.Fatalf("got %s want 0", got)
	}
}
