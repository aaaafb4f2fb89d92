package rfq

import (
	"context"
	"fmt"
	"net/url"

	"github.com/usdtb-otc/mint-svc/internal/order"
	"gitlab.com/distributed_lab/logan/v3"
	"golang.org/x/time/rate"
)

// Connector is the subset of jsonapi.Connector used against the RFQ API.
type Connector interface {
	Get(u *url.URL, dst interface{}) error
	PostJSON(u *url.URL, body interface{}, ctx context.Context, dst interface{}) error
}

type Client struct {
	log     *logan.Entry
	quotes  Connector
	orders  Connector
	limiter *rate.Limiter
	schema  order.Schema
	maxSize int64
}

type Opts struct {
	Schema  order.Schema
	MaxSize int64
	// Limiter spaces quote requests, nil means no limit.
	Limiter *rate.Limiter
}

// New takes separate connectors for quotes and orders since they carry
// different timeouts.
func New(log *logan.Entry, quotes, orders Connector, opts Opts) *Client {
	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Client{
		log:     log,
		quotes:  quotes,
		orders:  orders,
		limiter: limiter,
		schema:  opts.Schema,
		maxSize: opts.MaxSize,
	}
}

// connectorPanic carries a value the connector panicked with. The
// json-api connector panics on 429 instead of returning an error.
type connectorPanic struct {
	value interface{}
}

func (p connectorPanic) Error() string {
	return fmt.Sprintf("connector panicked: %v", p.value)
}

func (p connectorPanic) rateLimited() bool {
	s, ok := p.value.(string)
	return ok && s == "not implemented"
}

func guard(call func() error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			err = connectorPanic{value: rvr}
		}
	}()
	return call()
}
