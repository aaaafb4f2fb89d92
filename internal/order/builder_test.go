package order

import (
	"context"
	"math/big"
	"testing"
	"time"
)

type stubNonces struct {
	next *big.Int
	seen uint64
}

func (s *stubNonces) Next(_ context.Context, expiry uint64) (*big.Int, error) {
	s.seen = expiry
	return s.next, nil
}

func testQuote() Quote {
	return Quote{
		ID:               "abc",
		Side:             Mint,
		CollateralAmount: big.NewInt(30000000),
		SettlementAmount: big.NewInt(29970000),
	}
}

func testTerms() Terms {
	return Terms{Side: Mint, Benefactor: testWallet, Beneficiary: testWallet, CollateralAsset: testUSDC}
}

func TestBuilderCopiesQuote(t *testing.T) {
	now := time.Unix(1700000000, 0)
	nonces := &stubNonces{next: big.NewInt(99)}
	b := NewBuilder(nonces, 0).WithClock(func() time.Time { return now })

	o, err := b.Build(context.Background(), testQuote(), testTerms())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.ID != "abc" || o.Type != Mint || o.Type.Uint8() != 0 {
		t.Fatalf("unexpected identity: %+v", o)
	}
	if o.CollateralAmount.String() != "30000000" || o.SettlementAmount.String() != "29970000" {
		t.Fatalf("amounts changed: %s %s", o.CollateralAmount, o.SettlementAmount)
	}
	if o.Expiry != 1700000060 {
		t.Fatalf("got expiry %d want 1700000060", o.Expiry)
	}
	if nonces.seen != o.Expiry || o.Nonce.Int64() != 99 {
		t.Fatalf("nonce source not consulted: seen %d nonce %s", nonces.seen, o.Nonce)
	}
	if o.Benefactor != testWallet || o.Beneficiary != testWallet || o.CollateralAsset != testUSDC {
		t.Fatalf("terms not applied: %+v", o)
	}
}

func TestBuilderDoesNotAliasQuoteAmounts(t *testing.T) {
	q := testQuote()
	o, err := NewBuilder(RandomNonce(), time.Minute).Build(context.Background(), q, testTerms())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q.CollateralAmount.SetInt64(1)
	if o.CollateralAmount.String() != "30000000" {
		t.Fatalf("order shares memory with quote")
	}
}

func TestBuilderRejectsSideMismatch(t *testing.T) {
	q := testQuote()
	q.Side = Redeem
	_, err := NewBuilder(RandomNonce(), 0).Build(context.Background(), q, testTerms())
	if KindOf(err) != KindProtocolViolation {
		t.Fatalf("got %v want protocol violation", err)
	}
}

func TestTermsPulledAmount(t *testing.T) {
	q := testQuote()
	terms := testTerms()
	if got := terms.PulledAmount(q); got.String() != "30000000" {
		t.Fatalf("mint pulls %s want collateral 30000000", got)
	}
	terms.Side = Redeem
	if got := terms.PulledAmount(q); got.String() != q.SettlementAmount.String() {
		t.Fatalf("redeem pulls %s want settlement %s", got, q.SettlementAmount)
	}
	if KindOf(terms.Accept(q)) != KindProtocolViolation {
		t.Fatalf("mint quote accepted for redeem terms")
	}
	q.Side = Redeem
	q.SettlementAmount = nil
	if KindOf(terms.Accept(q)) != KindProtocolViolation {
		t.Fatalf("quote without amounts accepted")
	}
}

func TestBuiltOrderHashIsStable(t *testing.T) {
	now := time.Unix(1700000000, 0)
	b := NewBuilder(&stubNonces{next: big.NewInt(7)}, 0).WithClock(func() time.Time { return now })
	h := NewTypedDataHasher(testDomain(), Schema{})

	first, err := b.Build(context.Background(), testQuote(), testTerms())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := b.Build(context.Background(), testQuote(), testTerms())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d1, _ := h.HashOrder(context.Background(), first)
	d2, _ := h.HashOrder(context.Background(), second)
	if d1 != d2 {
		t.Fatalf("same inputs produced different hashes: %s %s", d1.Hex(), d2.Hex())
	}
}

func TestRandomNonce(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 64; i++ {
		n, err := RandomNonce().Next(context.Background(), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n.Sign() <= 0 || n.BitLen() > 128 {
			t.Fatalf("nonce out of range: %s", n)
		}
		if seen[n.String()] {
			t.Fatalf("nonce repeated: %s", n)
		}
		seen[n.String()] = true
	}

	n, _ := ExpiryNonce().Next(context.Background(), 1700000060)
	if n.Uint64() != 1700000060 {
		t.Fatalf("got %s want expiry", n)
	}
}

func TestParseHelpers(t *testing.T) {
	if s, err := ParseSide(" redeem "); err != nil || s != Redeem {
		t.Fatalf("got %v, %v want REDEEM", s, err)
	}
	if _, err := ParseSide("swap"); err == nil {
		t.Fatalf("expected error for unknown side")
	}
	if s, err := ParseNonceStrategy(""); err != nil || s != NonceRandom {
		t.Fatalf("got %v, %v want random", s, err)
	}
	if _, err := ParseNonceStrategy("time"); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}
