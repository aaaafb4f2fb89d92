package postgres

import (
	"github.com/Masterminds/squirrel"
	"github.com/fatih/structs"
	"github.com/usdtb-otc/mint-svc/internal/data"
	"gitlab.com/distributed_lab/kit/pgdb"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const submissionsTable = "order_submissions"

const createSubmissionsTable = `CREATE TABLE IF NOT EXISTS order_submissions (
	id                BIGSERIAL PRIMARY KEY,
	order_id          TEXT NOT NULL,
	side              TEXT NOT NULL,
	nonce             NUMERIC(39, 0) NOT NULL,
	expiry            BIGINT NOT NULL,
	benefactor        TEXT NOT NULL,
	collateral_asset  TEXT NOT NULL,
	collateral_amount NUMERIC(39, 0) NOT NULL,
	settlement_amount NUMERIC(39, 0) NOT NULL,
	status            TEXT NOT NULL,
	tx                TEXT NOT NULL DEFAULT '',
	message           TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMP WITH TIME ZONE NOT NULL
)`

type submissions struct {
	db *pgdb.DB
}

func NewSubmissions(db *pgdb.DB) (data.Submissions, error) {
	if err := db.Exec(squirrel.Expr(createSubmissionsTable)); err != nil {
		return nil, errors.Wrap(err, "failed to create submissions table")
	}
	return submissions{db: db}, nil
}

func (q submissions) Insert(s data.Submission) error {
	stmt := squirrel.Insert(submissionsTable).SetMap(structs.Map(s))
	err := q.db.Exec(stmt)
	return errors.Wrap(err, "failed to insert submission", logan.F{"order_id": s.OrderID})
}
