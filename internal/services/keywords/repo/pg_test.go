package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"trendflow/internal/core/series"
	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/store"
	"trendflow/internal/services/keywords/domain"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2025, 3, 14, 11, 0, 0, 0, time.UTC)

func newPG(t *testing.T) (pgxmock.PgxPoolIface, Repo) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPG().Bind(store.FromPool(mock).PG)
}

func TestPGInsert_OneStatementPerChunk(t *testing.T) {
	t.Parallel()

	mock, r := newPG(t)
	mock.ExpectExec(`INSERT INTO keyword_observations \(term, platform, count, observed_at, batch_id\) VALUES \(\$1,\$2,\$3,\$4,\$5\),\(\$6,\$7,\$8,\$9,\$10\)`).
		WithArgs("rust", "hackernews", int64(3), at, "b-1", "zig", "hackernews", int64(1), at, "b-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	err := r.Insert(context.Background(), "b-1", []series.Observation{
		{Term: "rust", Platform: "hackernews", Count: 3, At: at},
		{Term: "zig", Platform: "hackernews", Count: 1, At: at},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGInsert_EmptyBatchIDIsNull(t *testing.T) {
	t.Parallel()

	mock, r := newPG(t)
	mock.ExpectExec(`INSERT INTO keyword_observations`).
		WithArgs("rust", "news", int64(1), at, nil).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.Insert(context.Background(), "", []series.Observation{{Term: "rust", Platform: "news", Count: 1, At: at}}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGInsert_ChunksLargeBatches(t *testing.T) {
	t.Parallel()

	mock, r := newPG(t)
	obs := make([]series.Observation, insertChunk+1)
	for i := range obs {
		obs[i] = series.Observation{Term: "go", Platform: "hackernews", Count: 1, At: at}
	}
	mock.ExpectExec(`INSERT INTO keyword_observations`).WillReturnResult(pgxmock.NewResult("INSERT", insertChunk))
	mock.ExpectExec(`INSERT INTO keyword_observations`).WithArgs("go", "hackernews", int64(1), at, nil).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.Insert(context.Background(), "", obs))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGSelect_Filters(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		q    domain.Query
		sql  string
		args []any
	}{
		{
			name: "open range all platforms",
			q:    domain.Query{From: at},
			sql:  `SELECT term, platform, count, observed_at FROM keyword_observations WHERE observed_at >= \$1$`,
			args: []any{at},
		},
		{
			name: "bounded range one platform",
			q:    domain.Query{Platform: "news", From: at, To: at.Add(time.Hour)},
			sql:  `WHERE observed_at >= \$1 AND observed_at < \$2 AND platform = \$3$`,
			args: []any{at, at.Add(time.Hour), "news"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			mock, r := newPG(t)
			mock.ExpectQuery(tc.sql).WithArgs(tc.args...).
				WillReturnRows(pgxmock.NewRows([]string{"term", "platform", "count", "observed_at"}).
					AddRow("rust", "news", int64(2), at.In(time.FixedZone("CET", 3600))))

			got, err := r.Select(context.Background(), tc.q)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, series.Observation{Term: "rust", Platform: "news", Count: 2, At: at}, got[0])
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPGSelect_QueryError(t *testing.T) {
	t.Parallel()

	mock, r := newPG(t)
	mock.ExpectQuery(`SELECT term`).WillReturnError(errors.New("conn refused"))

	_, err := r.Select(context.Background(), domain.Query{From: at})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeDB))
}
