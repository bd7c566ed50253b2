package repository

import (
	"context"

	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/routeledger/backend/internal/common/db"
)

type PgRefreshTokenTxManager struct {
	pool *pgxpool.Pool
}

func NewPgRefreshTokenTxManager(pool *pgxpool.Pool) *PgRefreshTokenTxManager {
	return &PgRefreshTokenTxManager{pool: pool}
}

func (m *PgRefreshTokenTxManager) WithTx(ctx context.Context, fn func(context.Context, RefreshTokenTx) error) error {
	return db.WithTx(ctx, m.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, refreshTokenQueries{db: tx})
	})
}
