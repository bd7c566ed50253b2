package repository

import (
	"context"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	authdomain "github.com/routeledger/backend/internal/auth/domain"
	commoncrypto "github.com/routeledger/backend/internal/common/crypto"
	"github.com/routeledger/backend/internal/common/db"
	commonerrors "github.com/routeledger/backend/internal/common/errors"
)

var ErrRefreshTokenNotFound = commonerrors.NewDomainError(
	"REFRESH_TOKEN_NOT_FOUND",
	commonerrors.CategoryNotFound,
	"refresh token not found",
)

var ErrDuplicateTokenHash = commonerrors.NewDomainError(
	"DUPLICATE_TOKEN_HASH",
	commonerrors.CategoryConflict,
	"refresh token hash already exists",
)

type RefreshTokenRepository interface {
	Create(ctx context.Context, token authdomain.RefreshToken) error
	FindByTokenHash(ctx context.Context, hash string) (authdomain.RefreshToken, error)
	// RevokeByTokenHash marks the record revoked only if it is not revoked
	// yet and returns the number of rows it changed.
	RevokeByTokenHash(ctx context.Context, hash string, revokedAt time.Time) (int64, error)
	RevokeAllByUserID(ctx context.Context, userID string, revokedAt time.Time) (int64, error)
	// DeleteDead removes records revoked or expired before the given instant.
	DeleteDead(ctx context.Context, before time.Time) (int64, error)
	TxManager() RefreshTokenTxManager
}

// RefreshTokenTx is the subset of store operations available inside a
// transaction.
type RefreshTokenTx interface {
	FindByTokenHash(ctx context.Context, hash string) (authdomain.RefreshToken, error)
	RevokeByTokenHash(ctx context.Context, hash string, revokedAt time.Time) (int64, error)
	Create(ctx context.Context, token authdomain.RefreshToken) error
}

type RefreshTokenTxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx RefreshTokenTx) error) error
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const revokeAllByUserIDQuery = `UPDATE refresh_tokens
 SET revoked_at = $2
 WHERE user_id = $1 AND revoked_at IS NULL`

type PgRefreshTokenRepository struct {
	pool  *pgxpool.Pool
	q     refreshTokenQueries
	txMgr *PgRefreshTokenTxManager
}

func NewPgRefreshTokenRepository(pool *pgxpool.Pool) *PgRefreshTokenRepository {
	return &PgRefreshTokenRepository{
		pool:  pool,
		q:     refreshTokenQueries{db: pool},
		txMgr: NewPgRefreshTokenTxManager(pool),
	}
}

func (r *PgRefreshTokenRepository) TxManager() RefreshTokenTxManager {
	return r.txMgr
}

func (r *PgRefreshTokenRepository) Create(ctx context.Context, token authdomain.RefreshToken) error {
	return r.q.Create(ctx, token)
}

func (r *PgRefreshTokenRepository) FindByTokenHash(ctx context.Context, hash string) (authdomain.RefreshToken, error) {
	return r.q.FindByTokenHash(ctx, hash)
}

func (r *PgRefreshTokenRepository) RevokeByTokenHash(ctx context.Context, hash string, revokedAt time.Time) (int64, error) {
	return r.q.RevokeByTokenHash(ctx, hash, revokedAt)
}

func (r *PgRefreshTokenRepository) RevokeAllByUserID(ctx context.Context, userID string, revokedAt time.Time) (int64, error) {
	if !commoncrypto.ValidID(userID) {
		return 0, nil
	}

	start := time.Now()
	tag, err := r.pool.Exec(
		ctx,
		revokeAllByUserIDQuery,
		userID,
		revokedAt,
	)
	if err := db.HandleExecError(err, "revoke all refresh tokens", start); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgRefreshTokenRepository) DeleteDead(ctx context.Context, before time.Time) (int64, error) {
	start := time.Now()
	tag, err := r.pool.Exec(
		ctx,
		`DELETE FROM refresh_tokens
		 WHERE (revoked_at IS NOT NULL AND revoked_at < $1) OR expires_at < $1`,
		before,
	)
	if err := db.HandleExecError(err, "delete dead refresh tokens", start); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// refreshTokenQueries runs the statements shared by the pool-bound
// repository and its transactions.
type refreshTokenQueries struct {
	db querier
}

func (q refreshTokenQueries) Create(ctx context.Context, token authdomain.RefreshToken) error {
	start := time.Now()
	_, err := q.db.Exec(
		ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if db.IsUniqueViolation(err) {
		db.MeasureQueryDuration("create refresh token", start)
		return ErrDuplicateTokenHash.WithCause(err)
	}
	return db.HandleExecError(err, "create refresh token", start)
}

func (q refreshTokenQueries) FindByTokenHash(ctx context.Context, hash string) (authdomain.RefreshToken, error) {
	start := time.Now()
	row := q.db.QueryRow(
		ctx,
		`SELECT id::text, user_id::text, token_hash, expires_at, revoked_at, created_at
		 FROM refresh_tokens
		 WHERE token_hash = $1`,
		hash,
	)

	var token authdomain.RefreshToken
	err := row.Scan(&token.ID, &token.UserID, &token.TokenHash, &token.ExpiresAt, &token.RevokedAt, &token.CreatedAt)
	if err := db.HandleQueryError(err, ErrRefreshTokenNotFound, "find refresh token", start); err != nil {
		return authdomain.RefreshToken{}, err
	}
	return token, nil
}

func (q refreshTokenQueries) RevokeByTokenHash(ctx context.Context, hash string, revokedAt time.Time) (int64, error) {
	start := time.Now()
	tag, err := q.db.Exec(
		ctx,
		`UPDATE refresh_tokens
		 SET revoked_at = $2
		 WHERE token_hash = $1 AND revoked_at IS NULL`,
		hash,
		revokedAt,
	)
	if err := db.HandleExecError(err, "revoke refresh token", start); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
