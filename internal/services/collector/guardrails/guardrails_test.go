package guardrails

import (
	"context"
	"errors"
	"testing"
	"time"

	"trendflow/internal/platform/store"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithChildTimeout_NeverExtendsParent(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ctx, c2 := ForSource(parent, Timeouts{Source: time.Hour})
	defer c2()
	dl, ok := ctx.Deadline()
	require.True(t, ok)
	assert.LessOrEqual(t, time.Until(dl), 50*time.Millisecond)

	ctx, c3 := ForDB(context.Background(), Timeouts{})
	defer c3()
	_, ok = ctx.Deadline()
	assert.False(t, ok, "zero budget adds no deadline")

	ctx, c4 := ForRun(context.Background(), Timeouts{Run: time.Second})
	defer c4()
	assert.Greater(t, Remaining(ctx), time.Duration(0))
	assert.Zero(t, Remaining(context.Background()))
}

func TestSlot(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 12, 10, 47, 3, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC), Slot(at, 0))
	assert.Equal(t, time.Date(2025, 3, 12, 10, 45, 0, 0, time.UTC), Slot(at, 15*time.Minute))
}

func TestAdvisoryLease(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	lease := MakeAdvisoryLease(store.FromPool(mock).PG, "host-a")
	slot := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("insert into collection_leases").WithArgs(slot, "host-a").
		WillReturnRows(pgxmock.NewRows([]string{"bool"}).AddRow(true))
	mock.ExpectCommit()

	ran := false
	require.NoError(t, lease(context.Background(), slot, func(context.Context) error { ran = true; return nil }))
	assert.True(t, ran)

	mock.ExpectBegin()
	mock.ExpectQuery("insert into collection_leases").WithArgs(slot, "host-a").
		WillReturnRows(pgxmock.NewRows([]string{"bool"}))
	mock.ExpectCommit()

	ran = false
	err = lease(context.Background(), slot, func(context.Context) error { ran = true; return nil })
	assert.True(t, errors.Is(err, ErrLeaseHeld))
	assert.False(t, ran)
	require.NoError(t, mock.ExpectationsWereMet())
}
