package order

import (
	"fmt"
	"testing"

	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

var errTest = errors.New("boom")

func TestKindOfThroughWrapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errTest, KindUnknown},
		{"direct", QuoteUnavailable(errTest), KindQuoteUnavailable},
		{"wrapped cause", ChainReadError(errors.Wrap(errTest, "failed to read balance", logan.F{"token": "x"})), KindChainRead},
		{"nested", ApprovalFailed(QuoteUnavailable(errTest)), KindApprovalFailed},
		{"fmt wrap", fmt.Errorf("cycle: %w", TransportError(errTest)), KindTransport},
		{"rejection", OrderRejected(400, "expired order"), KindOrderRejected},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}

func TestConstructorsKeepNil(t *testing.T) {
	if err := ProtocolViolation(nil); err != nil {
		t.Fatalf("got %v want nil", err)
	}
}

func TestRejectionMessage(t *testing.T) {
	err := fmt.Errorf("failed to submit order: %w", OrderRejected(400, "expired order"))
	e := AsError(err)
	if e == nil {
		t.Fatalf("rejection lost in wrapping")
	}
	if e.Status != 400 || e.Message != "expired order" {
		t.Fatalf("got %d %q want 400 %q", e.Status, e.Message, "expired order")
	}
}
