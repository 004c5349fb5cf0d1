// Package repo stores stories, articles and the batch ledger in postgres
package repo

import (
	"context"
	"fmt"
	"strings"

	"trendflow/internal/modkit/repokit"
	perr "trendflow/internal/platform/errors"
	"trendflow/internal/services/collector/domain"

	"github.com/goccy/go-json"
)

// insertChunk keeps one statement under the bind parameter cap
const insertChunk = 500

type (
	pgBinder struct{}
	pgRepo   struct{ q repokit.Queryer }
)

// NewPG returns a binder for the postgres repo
func NewPG() repokit.Binder[domain.StorageRepo] { return pgBinder{} }

// Bind implements repokit.Binder
func (pgBinder) Bind(q repokit.Queryer) domain.StorageRepo { return &pgRepo{q: q} }

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// values writes "($1,..,$n),(..)" for rows of width cols
func values(sb *strings.Builder, rows, cols int) {
	for r := range rows {
		if r > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('(')
		for c := range cols {
			if c > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(sb, "$%d", r*cols+c+1)
		}
		sb.WriteByte(')')
	}
}

func (r *pgRepo) InsertStories(ctx context.Context, batchID string, xs []domain.Story) (int, error) {
	n := 0
	for start := 0; start < len(xs); start += insertChunk {
		chunk := xs[start:min(start+insertChunk, len(xs))]
		var sb strings.Builder
		sb.WriteString(`INSERT INTO stories (source_id, platform, title, score, num_comments, url, collected_at, batch_id) VALUES `)
		values(&sb, len(chunk), 8)
		args := make([]any, 0, len(chunk)*8)
		for _, s := range chunk {
			args = append(args, s.SourceID, s.Platform, s.Title, s.Score, s.Comments, s.URL, s.CollectedAt.UTC(), nullable(batchID))
		}
		tag, err := r.q.Exec(ctx, sb.String(), args...)
		if err != nil {
			return n, perr.FromPostgres(err, "collector: insert stories")
		}
		n += int(tag.RowsAffected())
	}
	return n, nil
}

func (r *pgRepo) InsertArticles(ctx context.Context, batchID string, xs []domain.Article) (int, error) {
	n := 0
	for start := 0; start < len(xs); start += insertChunk {
		chunk := xs[start:min(start+insertChunk, len(xs))]
		var sb strings.Builder
		sb.WriteString(`INSERT INTO articles (title, url, source, published_at, platform, collected_at, batch_id) VALUES `)
		values(&sb, len(chunk), 7)
		args := make([]any, 0, len(chunk)*7)
		for _, a := range chunk {
			var published any
			if !a.PublishedAt.IsZero() {
				published = a.PublishedAt.UTC()
			}
			args = append(args, a.Title, a.URL, a.Source, published, a.Platform, a.CollectedAt.UTC(), nullable(batchID))
		}
		tag, err := r.q.Exec(ctx, sb.String(), args...)
		if err != nil {
			return n, perr.FromPostgres(err, "collector: insert articles")
		}
		n += int(tag.RowsAffected())
	}
	return n, nil
}

func (r *pgRepo) RecordBatch(ctx context.Context, rep domain.BatchReport) error {
	failures := rep.Failures
	if failures == nil {
		failures = map[string]string{}
	}
	raw, err := json.Marshal(failures)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "collector: encode failures")
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO collection_batches (id, started_at, finished_at, stories, articles, observations, failures)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
		ON CONFLICT (id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			stories = EXCLUDED.stories,
			articles = EXCLUDED.articles,
			observations = EXCLUDED.observations,
			failures = EXCLUDED.failures
	`, rep.ID, rep.StartedAt.UTC(), rep.FinishedAt.UTC(), rep.Stories, rep.Articles, rep.TotalObservations(), string(raw))
	return perr.FromPostgres(err, "collector: record batch")
}
