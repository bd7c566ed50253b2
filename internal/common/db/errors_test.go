package db

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
)

func TestHandleQueryError(t *testing.T) {
	notFound := errors.New("not found")

	assert.NoError(t, HandleQueryError(nil, notFound, "find user", time.Now()))
	assert.Equal(t, notFound, HandleQueryError(pgx.ErrNoRows, notFound, "find user", time.Now()))

	boom := errors.New("boom")
	err := HandleQueryError(boom, notFound, "find user", time.Now())
	assert.ErrorIs(t, err, boom)
	assert.EqualError(t, err, "failed to find user: boom")
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("duplicate")))
}

func TestExtractTableFromOperation(t *testing.T) {
	assert.Equal(t, "refresh_tokens", extractTableFromOperation("revoke refresh token"))
	assert.Equal(t, "users", extractTableFromOperation("find user by identifier"))
	assert.Equal(t, "unknown", extractTableFromOperation("ping"))
}
