package repository

import (
	"context"
	"sync"
	"time"

	authdomain "github.com/routeledger/backend/internal/auth/domain"
)

// MemoryRefreshTokenRepository is an in-process store with the same
// conditional-revoke semantics as the Postgres repository. Transactions hold
// the store lock for their whole duration and undo their writes on error.
type MemoryRefreshTokenRepository struct {
	mu     sync.Mutex
	byHash map[string]authdomain.RefreshToken
}

func NewMemoryRefreshTokenRepository() *MemoryRefreshTokenRepository {
	return &MemoryRefreshTokenRepository{byHash: make(map[string]authdomain.RefreshToken)}
}

func (r *MemoryRefreshTokenRepository) TxManager() RefreshTokenTxManager {
	return r
}

func (r *MemoryRefreshTokenRepository) Create(_ context.Context, token authdomain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.create(token)
}

func (r *MemoryRefreshTokenRepository) FindByTokenHash(_ context.Context, hash string) (authdomain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(hash)
}

func (r *MemoryRefreshTokenRepository) RevokeByTokenHash(_ context.Context, hash string, revokedAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revoke(hash, revokedAt), nil
}

func (r *MemoryRefreshTokenRepository) RevokeAllByUserID(_ context.Context, userID string, revokedAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for hash, t := range r.byHash {
		if t.UserID == userID && t.RevokedAt == nil {
			at := revokedAt
			t.RevokedAt = &at
			r.byHash[hash] = t
			n++
		}
	}
	return n, nil
}

func (r *MemoryRefreshTokenRepository) DeleteDead(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for hash, t := range r.byHash {
		if (t.RevokedAt != nil && t.RevokedAt.Before(before)) || t.ExpiresAt.Before(before) {
			delete(r.byHash, hash)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored records.
func (r *MemoryRefreshTokenRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byHash)
}

func (r *MemoryRefreshTokenRepository) WithTx(ctx context.Context, fn func(context.Context, RefreshTokenTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memoryTx{repo: r, undo: make(map[string]*authdomain.RefreshToken)}
	if err := fn(ctx, tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (r *MemoryRefreshTokenRepository) create(token authdomain.RefreshToken) error {
	if _, exists := r.byHash[token.TokenHash]; exists {
		return ErrDuplicateTokenHash
	}
	r.byHash[token.TokenHash] = token
	return nil
}

func (r *MemoryRefreshTokenRepository) find(hash string) (authdomain.RefreshToken, error) {
	t, ok := r.byHash[hash]
	if !ok {
		return authdomain.RefreshToken{}, ErrRefreshTokenNotFound
	}
	if t.RevokedAt != nil {
		at := *t.RevokedAt
		t.RevokedAt = &at
	}
	return t, nil
}

func (r *MemoryRefreshTokenRepository) revoke(hash string, revokedAt time.Time) int64 {
	t, ok := r.byHash[hash]
	if !ok || t.RevokedAt != nil {
		return 0
	}
	at := revokedAt
	t.RevokedAt = &at
	r.byHash[hash] = t
	return 1
}

type memoryTx struct {
	repo *MemoryRefreshTokenRepository
	// undo keeps the pre-transaction state of every touched hash; nil means
	// the hash did not exist.
	undo map[string]*authdomain.RefreshToken
}

func (tx *memoryTx) remember(hash string) {
	if _, seen := tx.undo[hash]; seen {
		return
	}
	if prev, ok := tx.repo.byHash[hash]; ok {
		tx.undo[hash] = &prev
		return
	}
	tx.undo[hash] = nil
}

func (tx *memoryTx) rollback() {
	for hash, prev := range tx.undo {
		if prev == nil {
			delete(tx.repo.byHash, hash)
			continue
		}
		tx.repo.byHash[hash] = *prev
	}
}

func (tx *memoryTx) FindByTokenHash(_ context.Context, hash string) (authdomain.RefreshToken, error) {
	return tx.repo.find(hash)
}

func (tx *memoryTx) RevokeByTokenHash(_ context.Context, hash string, revokedAt time.Time) (int64, error) {
	tx.remember(hash)
	return tx.repo.revoke(hash, revokedAt), nil
}

func (tx *memoryTx) Create(_ context.Context, token authdomain.RefreshToken) error {
	tx.remember(token.TokenHash)
	return tx.repo.create(token)
}
