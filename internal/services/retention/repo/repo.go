// Package repo deletes aged rows from postgres and clickhouse
package repo

import (
	"context"
	"time"

	"trendflow/internal/modkit/repokit"
	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/store"
	"trendflow/internal/services/retention/domain"
)

type (
	pgBinder struct{}
	pgRepo   struct{ q repokit.Queryer }
)

// NewPG returns a binder for the postgres repo
func NewPG() repokit.Binder[domain.StorageRepo] { return pgBinder{} }

// Bind implements repokit.Binder
func (pgBinder) Bind(q repokit.Queryer) domain.StorageRepo { return &pgRepo{q: q} }

func (r *pgRepo) Prune(ctx context.Context, t domain.Table, before time.Time) (int64, error) {
	col := t.Column()
	if col == "" {
		return 0, perr.InvalidArgf("retention: unknown table %q", t)
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM `+string(t)+` WHERE `+col+` < $1`, before.UTC())
	if err != nil {
		return 0, perr.FromPostgresf(err, "retention: prune %s", t)
	}
	return tag.RowsAffected(), nil
}

// PruneCH drops clickhouse observations older than before
// the mutation runs in the background on the server
func PruneCH(ctx context.Context, ch store.Clickhouse, before time.Time) error {
	if err := ch.Exec(ctx, `ALTER TABLE keyword_observations DELETE WHERE observed_at < ?`, before.UTC()); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "retention: prune clickhouse observations")
	}
	return nil
}
