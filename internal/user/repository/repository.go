package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	commoncrypto "github.com/routeledger/backend/internal/common/crypto"
	"github.com/routeledger/backend/internal/common/db"
	commonerrors "github.com/routeledger/backend/internal/common/errors"
	"github.com/routeledger/backend/internal/user/domain"
)

var (
	ErrUserNotFound          = commonerrors.ErrUserNotFound
	ErrUsernameAlreadyExists = commonerrors.ErrUsernameAlreadyExists
)

type Repository interface {
	// FindByIdentifier matches username or email case-insensitively.
	FindByIdentifier(ctx context.Context, identifier string) (domain.User, error)
	FindByID(ctx context.Context, id domain.ID) (domain.User, error)
	Upsert(ctx context.Context, user domain.User) (domain.User, error)
}

const userColumns = `id::text, username, email, full_name, password_hash, role, is_active, created_at, updated_at`

const findUserByIDQuery = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		user domain.User
		id   string
		role string
	)
	err := row.Scan(
		&id,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	user.ID = domain.ID(id)
	user.Role = domain.Role(role)
	return user, err
}

func (r *PgRepository) FindByIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE lower(username) = lower($1) OR lower(email) = lower($1)
		 ORDER BY (lower(username) = lower($1)) DESC
		 LIMIT 1`,
		strings.TrimSpace(identifier),
	)

	user, err := scanUser(row)
	if err := db.HandleQueryError(err, ErrUserNotFound, "find user by identifier", start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	if !commoncrypto.ValidID(string(id)) {
		return domain.User{}, ErrUserNotFound
	}

	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		findUserByIDQuery,
		string(id),
	)

	user, err := scanUser(row)
	if err := db.HandleQueryError(err, ErrUserNotFound, "find user by id", start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Upsert inserts the user or, when the username already exists, refreshes
// its email, full name, password hash, role and active flag.
func (r *PgRepository) Upsert(ctx context.Context, user domain.User) (domain.User, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO users (id, username, email, full_name, password_hash, role, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 ON CONFLICT ((lower(username))) DO UPDATE SET
		 	email = EXCLUDED.email,
		 	full_name = EXCLUDED.full_name,
		 	password_hash = EXCLUDED.password_hash,
		 	role = EXCLUDED.role,
		 	is_active = EXCLUDED.is_active,
		 	updated_at = EXCLUDED.updated_at
		 RETURNING `+userColumns,
		string(user.ID),
		user.Username,
		user.Email,
		user.FullName,
		user.PasswordHash,
		string(user.Role),
		user.IsActive,
		user.CreatedAt,
	)

	saved, err := scanUser(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			db.MeasureQueryDuration("upsert user", start)
			return domain.User{}, ErrUsernameAlreadyExists.WithCause(err)
		}
		return domain.User{}, db.HandleQueryError(err, nil, "upsert user", start)
	}
	db.MeasureQueryDuration("upsert user", start)
	return saved, nil
}
