package retry

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"grocery/internal/domain/domainerr"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fast = Policy{Timeout: time.Second, Attempts: 2, Backoff: time.Millisecond}

func TestDo_SucceedsFirstTime(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast, func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesOnceOnTransient(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast, func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return driver.ErrBadConn
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_GivesUpAsTransient(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast, func(ctx context.Context) error {
		calls++
		return &pgconn.PgError{Code: "08006"}
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, errors.Is(err, domainerr.ErrTransient))
}

func TestDo_NoRetryOnPermanent(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast, func(ctx context.Context) error {
		calls++
		return domainerr.ErrNotFound
	})
	assert.Equal(t, 1, calls)
	assert.True(t, errors.Is(err, domainerr.ErrNotFound))
	assert.False(t, errors.Is(err, domainerr.ErrTransient))
}

func TestDo_TimeoutIsTransient(t *testing.T) {
	p := Policy{Timeout: 5 * time.Millisecond, Attempts: 2, Backoff: time.Millisecond}
	calls := 0
	err := Do(context.Background(), p, func(ctx context.Context) error {
		calls++
		<-ctx.Done()
		return ctx.Err()
	})
	assert.Equal(t, 2, calls)
	assert.True(t, errors.Is(err, domainerr.ErrTransient))
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsTransient(&pgconn.PgError{Code: "40P01"}))
	assert.False(t, IsTransient(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsTransient(errors.New("boom")))
}
