//go:build integration_pg

package repo

import (
	"context"
	"io"
	"testing"
	"time"

	"trendflow/internal/core/series"
	"trendflow/internal/platform/store"
	"trendflow/internal/platform/store/pgtest"
	"trendflow/internal/services/keywords/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPG_Integration_InsertSelect(t *testing.T) {
	dsn := pgtest.Start(t)
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	s, err := store.Open(ctx, store.Config{
		AppName: "trendflow-test",
		PG:      store.PGConfig{Enabled: true, URL: dsn, MaxConns: 2, Migrate: true},
	}, store.WithLogger(zerolog.New(io.Discard)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	r := NewPG().Bind(s.PG)
	at := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	obs := []series.Observation{
		{Term: "rust", Platform: "hackernews", Count: 3, At: at},
		{Term: "rust", Platform: "news", Count: 1, At: at.Add(time.Minute)},
		{Term: "zig", Platform: "hackernews", Count: 2, At: at.Add(2 * time.Hour)},
	}
	require.NoError(t, r.Insert(ctx, "0b7f6f3e-3c1e-4d7a-9a57-1d2f1c0de001", obs))
	require.NoError(t, r.Insert(ctx, "", obs[:1]))

	got, err := r.Select(ctx, domain.Query{Platform: "hackernews", From: at, To: at.Add(time.Hour)})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, o := range got {
		assert.Equal(t, "rust", o.Term)
	}

	all, err := r.Select(ctx, domain.Query{From: at.Add(-time.Hour)})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
