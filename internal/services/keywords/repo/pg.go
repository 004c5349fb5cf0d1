// Package repo persists keyword observations in postgres and clickhouse
package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trendflow/internal/core/series"
	"trendflow/internal/modkit/repokit"
	perr "trendflow/internal/platform/errors"
	"trendflow/internal/services/keywords/domain"
)

// insertChunk keeps a single insert under the postgres bind parameter cap
const insertChunk = 1000

// Repo is the persistence surface for observations
// batchID may be empty, it is stored as null
type Repo interface {
	Insert(ctx context.Context, batchID string, obs []series.Observation) error
	Select(ctx context.Context, q domain.Query) ([]series.Observation, error)
}

type (
	pgBinder struct{}
	pgRepo   struct{ q repokit.Queryer }
)

// NewPG returns a binder for the postgres repo
func NewPG() repokit.Binder[Repo] { return pgBinder{} }

// Bind implements repokit.Binder
func (pgBinder) Bind(q repokit.Queryer) Repo { return &pgRepo{q: q} }

func (r *pgRepo) Insert(ctx context.Context, batchID string, obs []series.Observation) error {
	var batch any
	if batchID != "" {
		batch = batchID
	}
	for start := 0; start < len(obs); start += insertChunk {
		end := min(start+insertChunk, len(obs))
		chunk := obs[start:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO keyword_observations (term, platform, count, observed_at, batch_id) VALUES `)
		args := make([]any, 0, len(chunk)*5)
		for i, o := range chunk {
			if i > 0 {
				sb.WriteByte(',')
			}
			base := i*5 + 1
			fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d)", base, base+1, base+2, base+3, base+4)
			args = append(args, o.Term, o.Platform, o.Count, o.At.UTC(), batch)
		}
		if _, err := r.q.Exec(ctx, sb.String(), args...); err != nil {
			return perr.FromPostgres(err, "keywords: insert observations")
		}
	}
	return nil
}

func (r *pgRepo) Select(ctx context.Context, q domain.Query) ([]series.Observation, error) {
	var sb strings.Builder
	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }

	sb.WriteString(`SELECT term, platform, count, observed_at FROM keyword_observations WHERE observed_at >= ` + arg(q.From.UTC()))
	if !q.To.IsZero() {
		sb.WriteString(` AND observed_at < ` + arg(q.To.UTC()))
	}
	if q.Platform != "" {
		sb.WriteString(` AND platform = ` + arg(q.Platform))
	}

	rows, err := r.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, perr.FromPostgres(err, "keywords: query observations")
	}
	defer rows.Close()

	out := make([]series.Observation, 0)
	for rows.Next() {
		var (
			o  series.Observation
			at time.Time
		)
		if err := rows.Scan(&o.Term, &o.Platform, &o.Count, &at); err != nil {
			return nil, perr.FromPostgres(err, "keywords: scan observation")
		}
		o.At = at.UTC()
		out = append(out, o)
	}
	return out, perr.FromPostgres(rows.Err(), "keywords: read observations")
}
