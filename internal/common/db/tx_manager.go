package db

import (
	"context"
	"fmt"

	pgx "github.com/jackc/pgx/v4"

	"github.com/routeledger/backend/internal/common/constants"
)

type TxBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// WithTx runs fn in a transaction that commits when fn returns nil and rolls
// back otherwise. The transaction runs on a context detached from the
// caller's cancellation and bounded by DBQueryTimeout, so a client abort
// cannot interrupt a commit that has already been decided.
func WithTx(ctx context.Context, db TxBeginner, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.DBQueryTimeout)
	defer cancel()

	tx, err := db.BeginTx(txCtx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(txCtx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(txCtx)
			return
		}
		if cerr := tx.Commit(txCtx); cerr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cerr)
		}
	}()

	return fn(txCtx, tx)
}
