// Package service contains stats workflows
package service

import (
	"context"
	"math"
	"sort"
	"time"

	"trendflow/internal/core/keywords"
	"trendflow/internal/modkit/repokit"
	perr "trendflow/internal/platform/errors"
	"trendflow/internal/services/api/stats/domain"
	"trendflow/internal/services/api/stats/repo"
)

const (
	defaultKeywordLimit  = 15
	defaultTimelineTerms = 5
	defaultPlatformLimit = 8
	defaultStoryLimit    = 8
	// news titles are re-extracted with the collector's article depth
	newsTermsPerTitle = 5
)

// Service defines the stats service contract
type Service interface {
	domain.ServicePort
}

// Svc implements the stats service
type Svc struct {
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
	ex     *keywords.Extractor
	now    func() time.Time
}

// New constructs a stats service, every read runs in a tx capped by timeout
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], timeout time.Duration) *Svc {
	if db == nil {
		panic("stats.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("stats.Service requires a non nil Repo binder")
	}
	if timeout > 0 {
		db = repokit.WithBeginHooks(db, repokit.StatementTimeout(timeout))
	}
	return &Svc{binder: binder, db: db, ex: keywords.Default(), now: time.Now}
}

func (s *Svc) read(ctx context.Context, op string, fn func(r repo.Repo) error) error {
	err := repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		return fn(s.binder.Bind(q))
	})
	return perr.WithOp(err, op)
}

func (s *Svc) since(w domain.Window) (from, now time.Time) {
	now = s.now().UTC()
	return now.AddDate(0, 0, -w.OrDefault()), now
}

// Overview returns the headline counts and story growth against the previous window
func (s *Svc) Overview(ctx context.Context, in domain.OverviewInput) (domain.Overview, error) {
	from, now := s.since(in.Window)
	prev := from.AddDate(0, 0, -in.OrDefault())

	var c repo.Counts
	err := s.read(ctx, "stats.Overview", func(r repo.Repo) (err error) {
		c, err = r.Counts(ctx, prev, from, now)
		return err
	})
	if err != nil {
		return domain.Overview{}, err
	}
	return domain.Overview{
		Days:            in.OrDefault(),
		Stories:         c.Stories,
		PreviousStories: c.PrevStories,
		StoryGrowth:     Growth(c.Stories, c.PrevStories),
		Observations:    c.Observations,
		Articles:        c.Articles,
	}, nil
}

// Growth is the percent change from prev to cur rounded to one decimal, 0 when prev is 0
func Growth(cur, prev int64) float64 {
	if prev <= 0 {
		return 0
	}
	pct := float64(cur-prev) / float64(prev) * 100
	return math.Round(pct*10) / 10
}

// Keywords returns the largest observation rows of the window
func (s *Svc) Keywords(ctx context.Context, in domain.KeywordsInput) ([]domain.KeywordRow, error) {
	from, _ := s.since(in.Window)
	limit := orDefault(in.Limit, defaultKeywordLimit)
	minCount := int64(orDefault(in.MinCount, 1))

	var rows []repo.RowKeyword
	err := s.read(ctx, "stats.Keywords", func(r repo.Repo) (err error) {
		rows, err = r.TopKeywords(ctx, from, minCount, in.Platform, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return keywordRows(rows), nil
}

// Timeline sums the chosen keywords per utc day, the top 5 of the window when none are given
func (s *Svc) Timeline(ctx context.Context, in domain.TimelineInput) (domain.Timeline, error) {
	from, _ := s.since(in.Window)
	out := domain.Timeline{Keywords: dedupe(in.Keywords), Points: []domain.TimelinePoint{}}

	err := s.read(ctx, "stats.Timeline", func(r repo.Repo) error {
		if len(out.Keywords) == 0 {
			top, err := r.TopKeywords(ctx, from, 1, "", defaultKeywordLimit)
			if err != nil {
				return err
			}
			terms := make([]string, 0, len(top))
			for _, k := range top {
				terms = append(terms, k.Term)
			}
			out.Keywords = dedupe(terms)
			if len(out.Keywords) > defaultTimelineTerms {
				out.Keywords = out.Keywords[:defaultTimelineTerms]
			}
		}
		if len(out.Keywords) == 0 {
			return nil
		}
		rows, err := r.Timeline(ctx, from, out.Keywords)
		if err != nil {
			return err
		}
		for _, p := range rows {
			out.Points = append(out.Points, domain.TimelinePoint{Day: p.Day, Term: p.Term, Count: p.Count})
		}
		return nil
	})
	if err != nil {
		return domain.Timeline{}, err
	}
	return out, nil
}

// Platforms compares the top hacker news rows with terms re-extracted from news article titles
func (s *Svc) Platforms(ctx context.Context, in domain.PlatformsInput) (domain.Platforms, error) {
	from, _ := s.since(in.Window)
	limit := orDefault(in.Limit, defaultPlatformLimit)

	var (
		hn     []repo.RowKeyword
		titles []string
	)
	err := s.read(ctx, "stats.Platforms", func(r repo.Repo) (err error) {
		if hn, err = r.TopKeywords(ctx, from, 1, "hackernews", limit); err != nil {
			return err
		}
		titles, err = r.ArticleTitles(ctx, from, "news")
		return err
	})
	if err != nil {
		return domain.Platforms{}, err
	}
	return domain.Platforms{HackerNews: keywordRows(hn), News: s.tally(titles, limit)}, nil
}

// tally counts each title's top terms once, ties keep first seen order
func (s *Svc) tally(titles []string, limit int) []domain.TermTotal {
	idx := map[string]int{}
	var out []domain.TermTotal
	for _, t := range titles {
		for _, term := range s.ex.Extract(t, newsTermsPerTitle) {
			i, ok := idx[term]
			if !ok {
				i = len(out)
				idx[term] = i
				out = append(out, domain.TermTotal{Term: term})
			}
			out[i].Count++
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []domain.TermTotal{}
	}
	return out
}

// Stories returns the highest scoring stories of the window
func (s *Svc) Stories(ctx context.Context, in domain.StoriesInput) ([]domain.StoryRow, error) {
	from, _ := s.since(in.Window)
	limit := orDefault(in.Limit, defaultStoryLimit)

	var rows []repo.RowStory
	err := s.read(ctx, "stats.Stories", func(r repo.Repo) (err error) {
		rows, err = r.TopStories(ctx, from, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.StoryRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.StoryRow{
			SourceID:    r.SourceID,
			Title:       r.Title,
			Score:       r.Score,
			Comments:    r.Comments,
			URL:         r.URL,
			CollectedAt: r.CollectedAt,
		})
	}
	return out, nil
}

func keywordRows(rows []repo.RowKeyword) []domain.KeywordRow {
	out := make([]domain.KeywordRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.KeywordRow{Term: r.Term, Platform: r.Platform, Count: r.Count, At: r.At})
	}
	return out
}

func dedupe(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok || t == "" {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
