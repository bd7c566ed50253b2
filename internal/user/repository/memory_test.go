package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routeledger/backend/internal/user/domain"
)

func seedUser() domain.User {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.User{
		ID:        "u-1",
		Username:  "Admin",
		Email:     "admin@example.com",
		Role:      domain.RoleAdmin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMemoryRepository_FindByIdentifier(t *testing.T) {
	repo := NewMemoryRepository(seedUser())
	ctx := context.Background()

	for _, ident := range []string{"admin", "ADMIN", "  admin ", "Admin@Example.com"} {
		u, err := repo.FindByIdentifier(ctx, ident)
		require.NoError(t, err, ident)
		assert.Equal(t, domain.ID("u-1"), u.ID)
	}

	_, err := repo.FindByIdentifier(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryRepository_UpsertUpdatesExisting(t *testing.T) {
	repo := NewMemoryRepository(seedUser())
	ctx := context.Background()

	saved, err := repo.Upsert(ctx, domain.User{
		ID:           "u-2",
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: "new-hash",
		Role:         domain.RoleAdmin,
		IsActive:     true,
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ID("u-1"), saved.ID)
	assert.Equal(t, "new-hash", saved.PasswordHash)

	_, err = repo.FindByID(ctx, "u-2")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryRepository_SetActive(t *testing.T) {
	repo := NewMemoryRepository(seedUser())

	require.True(t, repo.SetActive("u-1", false))
	u, err := repo.FindByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	assert.False(t, repo.SetActive("missing", false))
}

func TestRole(t *testing.T) {
	assert.True(t, domain.RoleAdmin.IsElevated())
	assert.False(t, domain.RoleStaff.IsElevated())
	assert.True(t, domain.RoleStaff.Valid())
	assert.False(t, domain.Role("ROOT").Valid())
}
