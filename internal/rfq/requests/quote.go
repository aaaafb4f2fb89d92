package requests

import (
	"net/url"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/usdtb-otc/mint-svc/internal/order"
)

type Quote struct {
	Pair       string
	Side       order.Side
	Size       int64
	Benefactor common.Address
}

func (q Quote) URL() *url.URL {
	query := url.Values{}
	query.Set("pair", q.Pair)
	query.Set("type_", "ALGO")
	query.Set("side", q.Side.String())
	query.Set("size", strconv.FormatInt(q.Size, 10))
	query.Set("benefactor", q.Benefactor.Hex())
	return &url.URL{Path: "rfq", RawQuery: query.Encode()}
}

func SubmitURL(sig order.Signature) *url.URL {
	query := url.Values{}
	query.Set("signature", sig.Hex())
	return &url.URL{Path: "order", RawQuery: query.Encode()}
}
