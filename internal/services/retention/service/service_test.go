package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/store"
	"trendflow/internal/services/retention/domain"
	"trendflow/internal/services/retention/repo"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 14, 12, 34, 0, 0, time.UTC)

type fakeCH struct {
	store.Clickhouse
	sql  string
	args []any
	err  error
}

func (f *fakeCH) Exec(_ context.Context, sql string, args ...any) error {
	f.sql, f.args = sql, args
	return f.err
}

func newSvc(t *testing.T, ch store.Clickhouse, cfg Config) (pgxmock.PgxPoolIface, *Service) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	s := New(store.FromPool(mock).PG, repo.NewPG(), ch, cfg)
	s.now = func() time.Time { return now }
	return mock, s
}

func TestPrune_DeletesEveryTableInOneTx(t *testing.T) {
	ch := &fakeCH{}
	mock, s := newSvc(t, ch, Config{Keep: 30 * 24 * time.Hour, CH: true})
	cut := time.Date(2025, 2, 12, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	for _, tbl := range domain.Tables {
		mock.ExpectExec(`DELETE FROM ` + string(tbl)).WithArgs(cut).WillReturnResult(pgxmock.NewResult("DELETE", 2))
	}
	mock.ExpectCommit()

	rep, err := s.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cut, rep.Cutoff)
	assert.Equal(t, int64(10), rep.Total())
	assert.True(t, rep.CH)
	assert.Contains(t, ch.sql, "ALTER TABLE keyword_observations DELETE")
	assert.Equal(t, []any{cut}, ch.args)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPrune_RollsBackOnFailure(t *testing.T) {
	ch := &fakeCH{}
	mock, s := newSvc(t, ch, Config{Keep: 30 * 24 * time.Hour, CH: true})

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM keyword_observations`).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM stories`).WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	_, err := s.Prune(context.Background())
	require.Error(t, err)
	e, ok := perr.As(err)
	require.True(t, ok)
	assert.Equal(t, "retention.Prune", e.Op())
	assert.Empty(t, ch.sql, "clickhouse is left alone when postgres fails")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPrune_ClickhouseFailureKeepsPostgresCounts(t *testing.T) {
	mock, s := newSvc(t, &fakeCH{err: errors.New("readonly")}, Config{CH: true})

	mock.ExpectBegin()
	for _, tbl := range domain.Tables {
		mock.ExpectExec(`DELETE FROM ` + string(tbl)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	}
	mock.ExpectCommit()

	rep, err := s.Prune(context.Background())
	require.Error(t, err)
	assert.Equal(t, int64(5), rep.Total())
	assert.False(t, rep.CH)
}

func TestNew_KeepFloorAndDisabledCH(t *testing.T) {
	ch := &fakeCH{}
	mock, s := newSvc(t, ch, Config{Keep: 24 * time.Hour})
	assert.Equal(t, MinKeep, s.Keep())

	mock.ExpectBegin()
	for _, tbl := range domain.Tables {
		mock.ExpectExec(`DELETE FROM ` + string(tbl)).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	}
	mock.ExpectCommit()

	rep, err := s.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.Add(-MinKeep).Truncate(time.Hour), rep.Cutoff)
	assert.False(t, rep.CH)
	assert.Empty(t, ch.sql)
}

func TestNew_PanicsWithoutDB(t *testing.T) {
	assert.Panics(t, func() { New(nil, repo.NewPG(), nil, Config{}) })
}

type countingRunner struct{ n atomic.Int32 }

func (c *countingRunner) Prune(context.Context) (domain.Report, error) {
	c.n.Add(1)
	return domain.Report{}, errors.New("pg down")
}

func TestJanitor_RunsImmediatelyAndStopsWithContext(t *testing.T) {
	r := &countingRunner{}
	j := NewJanitor(r, time.Hour)
	assert.Equal(t, "retention-janitor", j.String())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Serve(ctx) }()

	require.Eventually(t, func() bool { return r.n.Load() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
	assert.Equal(t, int32(1), r.n.Load())
}

func TestNewJanitor_DefaultsToDaily(t *testing.T) {
	assert.Equal(t, 24*time.Hour, NewJanitor(&countingRunner{}, 0).Interval)
}
