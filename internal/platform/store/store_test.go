package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"trendflow/internal/platform/config"
	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/logger"
	"trendflow/internal/platform/testkit"

	"github.com/alicebob/miniredis/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T, opts ...pgxmock.Option) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mock, err := pgxmock.NewPool(opts...)
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, FromPool(mock)
}

func TestFromPool_ExecQueryQueryRow(t *testing.T) {
	mock, s := newMock(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO keyword_observations").
		WithArgs("rust", "hackernews", int64(3)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	tag, err := s.PG.Exec(ctx, "INSERT INTO keyword_observations (term, platform, count) VALUES ($1, $2, $3)", "rust", "hackernews", int64(3))
	require.NoError(t, err)
	assert.Equal(t, int64(1), tag.RowsAffected())

	mock.ExpectQuery("SELECT term, count").
		WillReturnRows(pgxmock.NewRows([]string{"term", "count"}).AddRow("rust", int64(3)).AddRow("zig", int64(1)))
	rs, err := s.PG.Query(ctx, "SELECT term, count FROM keyword_observations")
	require.NoError(t, err)
	assert.Equal(t, []string{"term", "count"}, rs.Columns())
	n := 0
	for rs.Next() {
		n++
	}
	rs.Close()
	assert.Equal(t, 2, n)

	mock.ExpectQuery("SELECT count").WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(42)))
	var total int64
	require.NoError(t, s.PG.QueryRow(ctx, "SELECT count(*) FROM stories").Scan(&total))
	assert.Equal(t, int64(42), total)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTx_CommitAndRollback(t *testing.T) {
	mock, s := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO stories").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	err := s.PG.Tx(ctx, func(q RowQuerier) error {
		_, err := q.Exec(ctx, "INSERT INTO stories (title) VALUES ($1)", "Show HN")
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO articles").WillReturnError(boom)
	mock.ExpectRollback()
	err = s.PG.Tx(ctx, func(q RowQuerier) error {
		_, err := q.Exec(ctx, "INSERT INTO articles (title) VALUES ($1)", "x")
		return err
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHelpers_ScalarOneMany(t *testing.T) {
	mock, s := newMock(t)
	ctx := context.Background()
	scanTerm := func(r Row) (string, error) {
		var v string
		return v, r.Scan(&v)
	}

	mock.ExpectQuery("SELECT count").WillReturnRows(pgxmock.NewRows([]string{"n"}).AddRow(int64(7)))
	n, err := Scalar[int64](ctx, s.PG, "SELECT count(*) FROM keyword_observations")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	mock.ExpectQuery("SELECT term").WillReturnRows(pgxmock.NewRows([]string{"term"}))
	_, err = One(ctx, s.PG, scanTerm, "SELECT term FROM keyword_observations LIMIT 1")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound))

	mock.ExpectQuery("SELECT term").WillReturnRows(pgxmock.NewRows([]string{"term"}).AddRow("go").AddRow("rust"))
	_, err = One(ctx, s.PG, scanTerm, "SELECT term FROM keyword_observations")
	assert.Error(t, err)

	mock.ExpectQuery("SELECT term").WillReturnRows(pgxmock.NewRows([]string{"term"}).AddRow("go").AddRow("rust"))
	terms, err := Many(ctx, s.PG, scanTerm, "SELECT term FROM keyword_observations")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "rust"}, terms)

	mock.ExpectQuery("SELECT term").WillReturnRows(pgxmock.NewRows([]string{"term"}))
	empty, err := Many(ctx, s.PG, scanTerm, "SELECT term FROM keyword_observations")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	mock.ExpectExec("UPDATE").WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	assert.Error(t, ExecOne(ctx, s.PG, "UPDATE stories SET score = 1"))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGuard_PingsPostgres(t *testing.T) {
	mock, s := newMock(t, pgxmock.MonitorPingsOption(true))

	mock.ExpectPing()
	assert.NoError(t, s.Guard(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	err := s.Guard(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pg: connection refused")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGuard_NilAndEmpty(t *testing.T) {
	var s *Store
	assert.Error(t, s.Guard(context.Background()))
	assert.NoError(t, (&Store{}).Guard(context.Background()))
	assert.Equal(t, map[string]bool{"pg": false, "ch": false, "redis": false, "nats": false}, (&Store{}).Backends())
	assert.Empty(t, s.Checks())
}

func TestMigrate_AppliesPendingOnly(t *testing.T) {
	mock, s := newMock(t)
	ctx := context.Background()

	all, err := Migrations("migrations")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(all), 3)
	assert.Equal(t, "0001_keyword_observations", all[0].Version)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow(all[0].Version))
	for _, m := range all[1:] {
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectExec("INSERT INTO schema_migrations").WithArgs(m.Version).WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()
	}

	require.NoError(t, Migrate(ctx, s.PG, *logger.Nop()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrations_ClickhouseDir(t *testing.T) {
	all, err := Migrations("migrations/ch")
	require.NoError(t, err)
	require.Len(t, all, 1)
	testkit.MustContain(t, all[0].SQL, "ENGINE = MergeTree")
}

func TestPingWithBackoff(t *testing.T) {
	testkit.Serial(t)
	var slept []time.Duration
	testkit.Swap(t, &sleep, func(d time.Duration) { slept = append(slept, d) })

	calls := 0
	p := pingFunc(func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, pingWithBackoff(context.Background(), p, 5, time.Second, *logger.Nop()))
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{150 * time.Millisecond, 300 * time.Millisecond}, slept)

	err := pingWithBackoff(context.Background(), pingFunc(func(context.Context) error { return errors.New("down") }), 2, time.Second, *logger.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestOpen_RedisOnly(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := Open(ctx, Config{RDS: RedisConfig{Enabled: true, URL: "redis://" + mr.Addr() + "/0"}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(ctx) })

	assert.Nil(t, s.PG)
	assert.Nil(t, s.CH)
	require.NotNil(t, s.Redis)
	assert.NoError(t, s.Guard(ctx))
	assert.True(t, s.Backends()["redis"])
	checks := s.Checks()
	require.Len(t, checks, 1)
	require.Contains(t, checks, "redis")

	mr.Close()
	assert.Error(t, s.Guard(ctx))
	assert.Error(t, checks["redis"](ctx))
}

func TestOpen_BadBackends(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, Config{RDS: RedisConfig{Enabled: true, URL: "not-a-url"}})
	assert.Error(t, err)

	_, err = Open(ctx, Config{NATS: NATSConfig{Enabled: true, URL: "nats://127.0.0.1:1"}})
	assert.Error(t, err)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SERVICE_PGSQL_DBURL", "postgres://localhost/trendflow")
	t.Setenv("SERVICE_REDIS_ENABLED", "true")
	t.Setenv("SERVICE_CLICKHOUSE_ENABLED", "false")

	cfg := ConfigFromEnv(config.New(), "collector")
	assert.Equal(t, "trendflow-collector", cfg.AppName)
	assert.True(t, cfg.PG.Enabled)
	assert.True(t, cfg.PG.Migrate)
	assert.Equal(t, int32(4), cfg.PG.MaxConns)
	assert.True(t, cfg.RDS.Enabled)
	assert.False(t, cfg.CH.Enabled)
	assert.Equal(t, "collector", cfg.CH.ClientTag)
	assert.False(t, cfg.NATS.Enabled)
}
