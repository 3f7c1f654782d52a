package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying handle via the `tx` argument.
//
// Repository methods accept `tx Tx` so use-case interfaces stay free of
// storage types; the concrete handle (pgx.Tx for Postgres) is detected
// implementation-side. Repositories MUST accept a nil tx and fall back to
// the non-transactional path.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
