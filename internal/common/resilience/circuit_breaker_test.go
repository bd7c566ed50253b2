package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	pgx "github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routeledger/backend/internal/common/clock"
	commonerrors "github.com/routeledger/backend/internal/common/errors"
)

func newTestBreaker(c clock.Clock) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		Threshold:  2,
		Timeout:    time.Second,
		ResetAfter: 10 * time.Second,
		Clock:      c,
	})
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	mc := clock.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	cb := newTestBreaker(mc)
	boom := errors.New("connection refused")

	for i := 0; i < 2; i++ {
		err := cb.Call(context.Background(), func(context.Context) error { return boom })
		require.ErrorIs(t, err, boom)
	}

	called := false
	err := cb.Call(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, commonerrors.ErrCircuitOpen)
	assert.False(t, called)

	mc.Advance(11 * time.Second)
	err = cb.Call(context.Background(), func(context.Context) error { return nil })
	assert.NoError(t, err)
	assert.False(t, cb.IsOpen())
}

func TestCircuitBreaker_IgnoresOutcomeErrors(t *testing.T) {
	cb := newTestBreaker(clock.NewMockClock(time.Now()))
	rejected := commonerrors.NewDomainError("REJECTED", commonerrors.CategoryAuthentication, "rejected")

	for i := 0; i < 5; i++ {
		_ = cb.Call(context.Background(), func(context.Context) error { return pgx.ErrNoRows })
		_ = cb.Call(context.Background(), func(context.Context) error { return rejected })
	}

	assert.False(t, cb.IsOpen())
}

func TestCircuitBreaker_AppliesTimeout(t *testing.T) {
	cb := newTestBreaker(clock.NewRealClock())

	err := cb.Call(context.Background(), func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)
}
