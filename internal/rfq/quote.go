package rfq

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/usdtb-otc/mint-svc/internal/order"
	"github.com/usdtb-otc/mint-svc/internal/rfq/requests"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type QuoteRequest = requests.Quote

// RequestQuote asks the market maker for a firm quote. It never retries,
// every failure is reported as QuoteUnavailable.
func (c *Client) RequestQuote(ctx context.Context, req QuoteRequest) (order.Quote, error) {
	fields := logan.F{"pair": req.Pair, "side": req.Side.String(), "size": req.Size}
	if req.Size <= 0 || (c.maxSize > 0 && req.Size > c.maxSize) {
		return order.Quote{}, order.ProtocolViolation(errors.From(errors.New("quote size out of bounds"), fields))
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return order.Quote{}, order.QuoteUnavailable(errors.Wrap(err, "quote rate limiter aborted", fields))
	}

	var raw map[string]json.RawMessage
	err := guard(func() error {
		return c.quotes.Get(req.URL(), &raw)
	})
	if err != nil {
		return order.Quote{}, order.QuoteUnavailable(errors.Wrap(err, "failed to get quote", fields))
	}

	q, err := parseQuote(raw, req.Side, c.schema)
	if err != nil {
		return order.Quote{}, order.QuoteUnavailable(errors.Wrap(err, "failed to parse quote", fields))
	}

	c.log.WithFields(fields).WithFields(logan.F{
		"rfq_id":            q.ID,
		"collateral_amount": q.CollateralAmount.String(),
		"settlement_amount": q.SettlementAmount.String(),
	}).Info("Got quote")
	return q, nil
}

func parseQuote(raw map[string]json.RawMessage, side order.Side, schema order.Schema) (order.Quote, error) {
	if raw == nil {
		return order.Quote{}, errors.New("empty quote response")
	}

	id, err := parseID(raw["rfq_id"])
	if err != nil {
		return order.Quote{}, errors.Wrap(err, "bad rfq_id")
	}

	collateral, err := order.ParseAmount(raw["collateral_amount"])
	if err != nil {
		return order.Quote{}, errors.Wrap(err, "bad collateral_amount")
	}

	settlementField := schema.SettlementField
	if settlementField == "" {
		settlementField = "usdtb_amount"
	}
	settlement, err := order.ParseAmount(raw[settlementField])
	if err != nil {
		return order.Quote{}, errors.Wrap(err, "bad settlement amount", logan.F{"field": settlementField})
	}

	q := order.Quote{
		ID:               id,
		Side:             side,
		CollateralAmount: collateral,
		SettlementAmount: settlement,
	}

	if rawSide, ok := raw["side"]; ok {
		var s string
		if err := json.Unmarshal(rawSide, &s); err != nil {
			return order.Quote{}, errors.Wrap(err, "bad side")
		}
		parsed, err := order.ParseSide(s)
		if err != nil {
			return order.Quote{}, err
		}
		if parsed != side {
			return order.Quote{}, errors.From(errors.New("quote side does not match request"), logan.F{"side": s})
		}
	}

	if rawExpiry, ok := raw["expiry"]; ok {
		var unix int64
		if err := json.Unmarshal(rawExpiry, &unix); err == nil && unix > 0 {
			expiresAt := time.Unix(unix, 0)
			q.ExpiresAt = &expiresAt
		}
	}

	return q, nil
}

func parseID(raw json.RawMessage) (string, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return "", errors.New("rfq_id is missing")
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", errors.New("rfq_id is empty")
		}
		return s, nil
	}

	// some deployments return numeric ids
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", errors.Wrap(err, "rfq_id is neither string nor number")
	}
	if _, err := strconv.ParseUint(n.String(), 10, 64); err != nil {
		return "", errors.Wrap(err, "rfq_id is not an integer")
	}
	return n.String(), nil
}
