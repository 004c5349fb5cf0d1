package repo

import (
	"context"
	"strings"
	"time"

	"trendflow/internal/core/series"
	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/store"
	"trendflow/internal/services/keywords/domain"
)

const chTable = "keyword_observations"

// CH keeps observations in clickhouse, used as the query backend or an append mirror
type CH struct {
	db store.Clickhouse
}

// NewCH wraps a clickhouse seam
func NewCH(db store.Clickhouse) *CH { return &CH{db: db} }

// Insert sends obs as one native batch
func (r *CH) Insert(ctx context.Context, batchID string, obs []series.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	rows := make([][]any, len(obs))
	for i, o := range obs {
		rows[i] = []any{o.Term, o.Platform, uint32(o.Count), o.At.UTC(), batchID}
	}
	if err := r.db.Insert(ctx, chTable, rows); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "keywords: clickhouse insert")
	}
	return nil
}

// Select reads the observations of q
func (r *CH) Select(ctx context.Context, q domain.Query) ([]series.Observation, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT term, platform, count, observed_at FROM ` + chTable + ` WHERE observed_at >= ?`)
	args := []any{q.From.UTC()}
	if !q.To.IsZero() {
		sb.WriteString(` AND observed_at < ?`)
		args = append(args, q.To.UTC())
	}
	if q.Platform != "" {
		sb.WriteString(` AND platform = ?`)
		args = append(args, q.Platform)
	}

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "keywords: clickhouse query")
	}
	defer rows.Close()

	out := make([]series.Observation, 0)
	for rows.Next() {
		var (
			o     series.Observation
			count uint32
			at    time.Time
		)
		if err := rows.Scan(&o.Term, &o.Platform, &count, &at); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeDB, "keywords: clickhouse scan")
		}
		o.Count = int64(count)
		o.At = at.UTC()
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "keywords: clickhouse rows")
	}
	return out, nil
}
