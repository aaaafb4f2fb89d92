package rfq

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/usdtb-otc/mint-svc/internal/order"
	"github.com/usdtb-otc/mint-svc/internal/rfq/requests"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type submitResponse struct {
	Tx    string `json:"tx"`
	Error string `json:"error"`
}

// SubmitOrder posts a signed order once. The caller must not resubmit the
// same signature, a fresh quote is needed instead.
func (c *Client) SubmitOrder(ctx context.Context, o order.Order, sig order.Signature) (string, error) {
	log := c.log.WithFields(logan.F{"order_id": o.ID, "nonce": o.Nonce.String()})
	log.Debug("Submitting order")

	var resp submitResponse
	err := guard(func() error {
		return c.orders.PostJSON(requests.SubmitURL(sig), requests.NewOrder(o, c.schema), ctx, &resp)
	})
	if err != nil {
		return "", classifySubmitError(err)
	}
	if resp.Tx == "" {
		message := resp.Error
		if message == "" {
			message = "response has no tx"
		}
		return "", order.OrderRejected(http.StatusOK, message)
	}
	return resp.Tx, nil
}

// statusError is satisfied by cerrors.Error, returned by the connector for
// non-2xx responses.
type statusError interface {
	error
	Status() int
}

func classifySubmitError(err error) error {
	if p, ok := err.(connectorPanic); ok && p.rateLimited() {
		return order.OrderRejected(http.StatusTooManyRequests, "rate limited")
	}
	c, ok := err.(statusError)
	if !ok || c.Status() == 0 {
		return order.TransportError(errors.Wrap(err, "failed to submit order"))
	}
	return order.OrderRejected(c.Status(), rejectionMessage(err))
}

// rejectionMessage prefers the "error" field of the response body.
func rejectionMessage(err error) string {
	if withBody, ok := err.(interface{ Body() []byte }); ok {
		body := withBody.Body()
		var resp submitResponse
		if jsonErr := json.Unmarshal(body, &resp); jsonErr == nil && resp.Error != "" {
			return resp.Error
		}
		if text := strings.TrimSpace(string(body)); text != "" {
			return text
		}
	}
	return err.Error()
}
