package service_test

import (
	"context"
	"time"

	authdomain "github.com/routeledger/backend/internal/auth/domain"
	authrepo "github.com/routeledger/backend/internal/auth/repository"
	userdomain "github.com/routeledger/backend/internal/user/domain"
	userrepo "github.com/routeledger/backend/internal/user/repository"
)

type mockUserRepo struct {
	findByIdentifierFunc func(ctx context.Context, identifier string) (userdomain.User, error)
	findByIDFunc         func(ctx context.Context, id userdomain.ID) (userdomain.User, error)
}

func (m *mockUserRepo) FindByIdentifier(ctx context.Context, identifier string) (userdomain.User, error) {
	if m.findByIdentifierFunc != nil {
		return m.findByIdentifierFunc(ctx, identifier)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) Upsert(_ context.Context, user userdomain.User) (userdomain.User, error) {
	return user, nil
}

// failingTxRepo wraps a memory store and lets tests fail the successor
// insert inside a rotation transaction.
type failingTxRepo struct {
	*authrepo.MemoryRefreshTokenRepository
	createInTxFunc func(ctx context.Context, token authdomain.RefreshToken) error
}

func (r *failingTxRepo) TxManager() authrepo.RefreshTokenTxManager {
	return r
}

func (r *failingTxRepo) WithTx(ctx context.Context, fn func(context.Context, authrepo.RefreshTokenTx) error) error {
	return r.MemoryRefreshTokenRepository.WithTx(ctx, func(ctx context.Context, tx authrepo.RefreshTokenTx) error {
		return fn(ctx, &failingTx{RefreshTokenTx: tx, createFunc: r.createInTxFunc})
	})
}

type failingTx struct {
	authrepo.RefreshTokenTx
	createFunc func(ctx context.Context, token authdomain.RefreshToken) error
}

func (tx *failingTx) Create(ctx context.Context, token authdomain.RefreshToken) error {
	if tx.createFunc != nil {
		return tx.createFunc(ctx, token)
	}
	return tx.RefreshTokenTx.Create(ctx, token)
}

type mockRefreshTokenRepo struct {
	authrepo.RefreshTokenRepository
	revokeByTokenHashFunc func(ctx context.Context, hash string, revokedAt time.Time) (int64, error)
}

func (m *mockRefreshTokenRepo) RevokeByTokenHash(ctx context.Context, hash string, revokedAt time.Time) (int64, error) {
	return m.revokeByTokenHashFunc(ctx, hash, revokedAt)
}
