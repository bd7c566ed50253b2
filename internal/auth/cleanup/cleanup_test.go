package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authdomain "github.com/routeledger/backend/internal/auth/domain"
	authrepo "github.com/routeledger/backend/internal/auth/repository"
	"github.com/routeledger/backend/internal/common/clock"
	"github.com/routeledger/backend/internal/common/logger"
)

type mockDeleter struct {
	deleteDeadFunc func(ctx context.Context, before time.Time) (int64, error)
}

func (m *mockDeleter) DeleteDead(ctx context.Context, before time.Time) (int64, error) {
	return m.deleteDeadFunc(ctx, before)
}

func TestRunOnce_UsesRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	var got time.Time
	repo := &mockDeleter{deleteDeadFunc: func(_ context.Context, before time.Time) (int64, error) {
		got = before
		return 4, nil
	}}

	c := NewCleaner(repo, Config{Interval: time.Hour, Retention: 30 * 24 * time.Hour}, clock.NewMockClock(now), logger.Discard())
	n, err := c.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, now.Add(-30*24*time.Hour), got)
}

func TestRunOnce_PropagatesError(t *testing.T) {
	repo := &mockDeleter{deleteDeadFunc: func(context.Context, time.Time) (int64, error) {
		return 0, errors.New("db down")
	}}

	c := NewCleaner(repo, Config{Interval: time.Hour, Retention: time.Hour}, nil, logger.Discard())
	_, err := c.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestRunOnce_KeepsLiveAndRecentlyDeadRecords(t *testing.T) {
	now := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()
	repo := authrepo.NewMemoryRefreshTokenRepository()

	longAgo := now.Add(-60 * 24 * time.Hour)
	recently := now.Add(-24 * time.Hour)
	records := []authdomain.RefreshToken{
		{ID: "live", UserID: "u", TokenHash: "h-live", ExpiresAt: now.Add(time.Hour), CreatedAt: longAgo},
		{ID: "old-expired", UserID: "u", TokenHash: "h-old-expired", ExpiresAt: longAgo, CreatedAt: longAgo},
		{ID: "recent-expired", UserID: "u", TokenHash: "h-recent-expired", ExpiresAt: recently, CreatedAt: longAgo},
		{ID: "old-revoked", UserID: "u", TokenHash: "h-old-revoked", ExpiresAt: now.Add(time.Hour), CreatedAt: longAgo},
	}
	for _, r := range records {
		require.NoError(t, repo.Create(ctx, r))
	}
	_, err := repo.RevokeByTokenHash(ctx, "h-old-revoked", longAgo)
	require.NoError(t, err)

	c := NewCleaner(repo, Config{Interval: time.Hour, Retention: 30 * 24 * time.Hour}, clock.NewMockClock(now), logger.Discard())
	n, err := c.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 2, repo.Len())

	_, err = repo.FindByTokenHash(ctx, "h-live")
	assert.NoError(t, err)
	_, err = repo.FindByTokenHash(ctx, "h-recent-expired")
	assert.NoError(t, err)
}

func TestStart_DisabledReturnsImmediately(t *testing.T) {
	repo := &mockDeleter{deleteDeadFunc: func(context.Context, time.Time) (int64, error) {
		t.Fatal("must not run")
		return 0, nil
	}}

	c := NewCleaner(repo, Config{Interval: time.Hour}, nil, logger.Discard())
	assert.False(t, c.Enabled())

	done := make(chan struct{})
	go func() {
		c.Start(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return for disabled cleaner")
	}
}

func TestStart_StopsOnCancel(t *testing.T) {
	calls := make(chan struct{}, 16)
	repo := &mockDeleter{deleteDeadFunc: func(context.Context, time.Time) (int64, error) {
		calls <- struct{}{}
		return 0, nil
	}}

	c := NewCleaner(repo, Config{Interval: 5 * time.Millisecond, Retention: time.Hour}, nil, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()

	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("cleanup never ran")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not stop after cancel")
	}
}
