package data

import "time"

type Submissions interface {
	Insert(Submission) error
}

// Submission is one attempt to settle a signed order, successful or not.
type Submission struct {
	OrderID          string    `structs:"order_id"`
	Side             string    `structs:"side"`
	Nonce            string    `structs:"nonce"`
	Expiry           int64     `structs:"expiry"`
	Benefactor       string    `structs:"benefactor"`
	CollateralAsset  string    `structs:"collateral_asset"`
	CollateralAmount string    `structs:"collateral_amount"`
	SettlementAmount string    `structs:"settlement_amount"`
	Status           string    `structs:"status"`
	Tx               string    `structs:"tx"`
	Message          string    `structs:"message"`
	CreatedAt        time.Time `structs:"created_at,omitnested"`
}

const (
	SubmissionSettled   = "settled"
	SubmissionRejected  = "rejected"
	SubmissionTransport = "transport_error"
)
