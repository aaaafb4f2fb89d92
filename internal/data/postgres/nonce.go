package postgres

import (
	"database/sql"
	"math/big"

	"github.com/Masterminds/squirrel"
	"github.com/usdtb-otc/mint-svc/internal/data"
	"gitlab.com/distributed_lab/kit/pgdb"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const nonceTable = "order_nonces"
const signerCol = "signer"

const createNonceTable = `CREATE TABLE IF NOT EXISTS order_nonces (
	signer TEXT PRIMARY KEY,
	value  NUMERIC(39, 0) NOT NULL
)`

type nonces struct {
	db     *pgdb.DB
	signer string
}

// NewNonces seeds the counter with seed when the signer has no row yet.
func NewNonces(db *pgdb.DB, signer string, seed uint64) (data.Nonces, error) {
	q := nonces{db: db, signer: signer}
	if err := q.init(seed); err != nil {
		return nonces{}, errors.Wrap(err, "failed to initialize nonce storage")
	}
	return q, nil
}

func (q nonces) init(seed uint64) error {
	if err := q.db.Exec(squirrel.Expr(createNonceTable)); err != nil {
		return errors.Wrap(err, "failed to create nonce table")
	}

	v, err := q.get()
	if err != nil {
		return errors.Wrap(err, "failed to check nonce existence")
	}
	if v != nil {
		return nil
	}

	stmt := squirrel.Insert(nonceTable).Columns(signerCol, "value").Values(q.signer, seed)
	err = q.db.Exec(stmt)
	return errors.Wrap(err, "failed to insert initial nonce")
}

func (q nonces) get() (*big.Int, error) {
	var result struct {
		Value string `db:"value"`
	}
	stmt := squirrel.Select("value").From(nonceTable).Where(squirrel.Eq{signerCol: q.signer})

	if err := q.db.Get(&result, stmt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to select nonce")
	}
	return parseNumeric(result.Value)
}

func (q nonces) Next() (*big.Int, error) {
	var result struct {
		Value string `db:"value"`
	}
	stmt := squirrel.Update(nonceTable).
		Set("value", squirrel.Expr("value + 1")).
		Where(squirrel.Eq{signerCol: q.signer}).
		Suffix("RETURNING value")

	if err := q.db.Get(&result, stmt); err != nil {
		return nil, errors.Wrap(err, "failed to increment nonce", logan.F{"signer": q.signer})
	}
	return parseNumeric(result.Value)
}

func parseNumeric(raw string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, errors.From(errors.New("nonce is not an integer"), logan.F{"value": raw})
	}
	return v, nil
}
