// Package repo provides postgres access for stats
package repo

import (
	"context"
	"time"

	"trendflow/internal/modkit/repokit"
	perr "trendflow/internal/platform/errors"
)

// Repo is the minimal persistence surface for stats
// every range is [from, to)
type Repo interface {
	Counts(ctx context.Context, prev, from, to time.Time) (Counts, error)
	TopKeywords(ctx context.Context, from time.Time, minCount int64, platform string, limit int) ([]RowKeyword, error)
	Timeline(ctx context.Context, from time.Time, terms []string) ([]RowTimeline, error)
	ArticleTitles(ctx context.Context, from time.Time, platform string) ([]string, error)
	TopStories(ctx context.Context, from time.Time, limit int) ([]RowStory, error)
}

// Counts holds the headline totals, PrevStories covers [prev, from)
type Counts struct {
	Stories      int64
	PrevStories  int64
	Observations int64
	Articles     int64
}

// RowKeyword is a stored observation
type RowKeyword struct {
	Term     string
	Platform string
	Count    int64
	At       time.Time
}

// RowTimeline is a per day keyword sum
type RowTimeline struct {
	Day   string
	Term  string
	Count int64
}

// RowStory is a stored story
type RowStory struct {
	SourceID    int64
	Title       string
	Score       int
	Comments    int
	URL         string
	CollectedAt time.Time
}

type (
	// PG is a binder that can bind the repo to a Queryer or TxRunner
	PG struct{}
	// queries implements the Repo interface
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder that can bind the repo to a Queryer or TxRunner
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind wires a Queryer to the repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) Counts(ctx context.Context, prev, from, to time.Time) (Counts, error) {
	const sql = `
select
  (select count(1) from stories where collected_at >= $2 and collected_at < $3),
  (select count(1) from stories where collected_at >= $1 and collected_at < $2),
  (select count(1) from keyword_observations where observed_at >= $2 and observed_at < $3),
  (select count(1) from articles where collected_at >= $2 and collected_at < $3)
`
	var c Counts
	err := r.q.QueryRow(ctx, sql, prev.UTC(), from.UTC(), to.UTC()).Scan(&c.Stories, &c.PrevStories, &c.Observations, &c.Articles)
	if err != nil {
		return Counts{}, perr.FromPostgres(err, "stats: counts")
	}
	return c, nil
}

func (r *queries) TopKeywords(ctx context.Context, from time.Time, minCount int64, platform string, limit int) ([]RowKeyword, error) {
	const sql = `
select term, platform, count, observed_at
from keyword_observations
where observed_at >= $1
and count >= $2
and ($3 = '' or platform = $3)
order by count desc, observed_at desc, term asc
limit $4
`
	rows, err := r.q.Query(ctx, sql, from.UTC(), minCount, platform, limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "stats: top keywords")
	}
	defer rows.Close()
	out := make([]RowKeyword, 0, limit)
	for rows.Next() {
		var rr RowKeyword
		if err := rows.Scan(&rr.Term, &rr.Platform, &rr.Count, &rr.At); err != nil {
			return nil, perr.FromPostgres(err, "stats: scan keyword")
		}
		rr.At = rr.At.UTC()
		out = append(out, rr)
	}
	return out, perr.FromPostgres(rows.Err(), "stats: read keywords")
}

func (r *queries) Timeline(ctx context.Context, from time.Time, terms []string) ([]RowTimeline, error) {
	// days are bucketed in utc like the feature builder
	const sql = `
select ((observed_at at time zone 'UTC')::date)::text as day, term, sum(count) as total
from keyword_observations
where observed_at >= $1
and term = any($2)
group by day, term
order by day asc, term asc
`
	rows, err := r.q.Query(ctx, sql, from.UTC(), terms)
	if err != nil {
		return nil, perr.FromPostgres(err, "stats: timeline")
	}
	defer rows.Close()
	var out []RowTimeline
	for rows.Next() {
		var rr RowTimeline
		if err := rows.Scan(&rr.Day, &rr.Term, &rr.Count); err != nil {
			return nil, perr.FromPostgres(err, "stats: scan timeline")
		}
		out = append(out, rr)
	}
	return out, perr.FromPostgres(rows.Err(), "stats: read timeline")
}

func (r *queries) ArticleTitles(ctx context.Context, from time.Time, platform string) ([]string, error) {
	const sql = `
select title
from articles
where collected_at >= $1
and ($2 = '' or platform = $2)
order by collected_at asc, id asc
`
	rows, err := r.q.Query(ctx, sql, from.UTC(), platform)
	if err != nil {
		return nil, perr.FromPostgres(err, "stats: article titles")
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, perr.FromPostgres(err, "stats: scan article")
		}
		out = append(out, t)
	}
	return out, perr.FromPostgres(rows.Err(), "stats: read articles")
}

func (r *queries) TopStories(ctx context.Context, from time.Time, limit int) ([]RowStory, error) {
	const sql = `
select source_id, title, score, num_comments, url, collected_at
from stories
where collected_at >= $1
order by score desc, collected_at desc
limit $2
`
	rows, err := r.q.Query(ctx, sql, from.UTC(), limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "stats: top stories")
	}
	defer rows.Close()
	out := make([]RowStory, 0, limit)
	for rows.Next() {
		var rr RowStory
		if err := rows.Scan(&rr.SourceID, &rr.Title, &rr.Score, &rr.Comments, &rr.URL, &rr.CollectedAt); err != nil {
			return nil, perr.FromPostgres(err, "stats: scan story")
		}
		rr.CollectedAt = rr.CollectedAt.UTC()
		out = append(out, rr)
	}
	return out, perr.FromPostgres(rows.Err(), "stats: read stories")
}
