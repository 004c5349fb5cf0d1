// Package service runs collection batches: fetch, extract, count, store, announce
package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"trendflow/internal/adapters/ingest/feeds"
	"trendflow/internal/adapters/ingest/hackernews"
	"trendflow/internal/adapters/ingest/newsapi"
	"trendflow/internal/core/keywords"
	"trendflow/internal/core/series"
	"trendflow/internal/modkit/repokit"
	"trendflow/internal/platform/bus"
	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/logger"
	"trendflow/internal/platform/metrics"
	"trendflow/internal/services/collector/domain"
	"trendflow/internal/services/collector/guardrails"
	kwdom "trendflow/internal/services/keywords/domain"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Config holds the per batch knobs
type Config struct {
	// StoryTerms is how many terms each story title contributes
	StoryTerms int
	// ArticleTerms is how many terms each article or feed title contributes
	ArticleTerms int
	// NewsKeywords is how many leading story terms seed the news search
	NewsKeywords int
	// TopTerms is how many batch terms the report and the event carry
	TopTerms int
	// Interval sizes the lease slot
	Interval time.Duration
	Timeouts guardrails.Timeouts
}

func (c Config) withDefaults() Config {
	if c.StoryTerms <= 0 {
		c.StoryTerms = 10
	}
	if c.ArticleTerms <= 0 {
		c.ArticleTerms = 5
	}
	if c.NewsKeywords <= 0 {
		c.NewsKeywords = 5
	}
	if c.TopTerms <= 0 {
		c.TopTerms = 10
	}
	if c.Interval <= 0 {
		c.Interval = time.Hour
	}
	return c
}

// Service implements domain.RunnerPort
type Service struct {
	DB      repokit.TxRunner // optional, raw items are only kept when set
	Binder  repokit.Binder[domain.StorageRepo]
	Store   kwdom.Store
	Stories StorySource
	News    NewsSource // optional
	Feeds   FeedSource // optional
	Bus     bus.Publisher
	Lease   guardrails.Lease
	Ex      *keywords.Extractor
	Cfg     Config

	now   func() time.Time
	newID func() string
}

var _ domain.RunnerPort = (*Service)(nil)

// New constructs the collector service, store and stories are required
func New(
	db repokit.TxRunner,
	binder repokit.Binder[domain.StorageRepo],
	store kwdom.Store,
	stories StorySource,
	news NewsSource,
	fs FeedSource,
	pub bus.Publisher,
	lease guardrails.Lease,
	cfg Config,
) *Service {
	if store == nil {
		panic("collector.Service requires a keyword store")
	}
	if stories == nil {
		panic("collector.Service requires a story source")
	}
	if pub == nil {
		pub = bus.Nop{}
	}
	if lease == nil {
		lease = guardrails.NoLease
	}
	return &Service{
		DB: db, Binder: binder, Store: store,
		Stories: stories, News: news, Feeds: fs,
		Bus: pub, Lease: lease,
		Ex:    keywords.Default(),
		Cfg:   cfg.withDefaults(),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// RunOnce collects one batch
// a story source or keyword store failure fails the run, news and feed failures land in the report
func (s *Service) RunOnce(ctx context.Context) (domain.BatchReport, error) {
	started := s.now().UTC()
	rep := domain.BatchReport{
		ID:           s.newID(),
		StartedAt:    started,
		Observations: map[string]int{},
		TopTerms:     []keywords.TermCount{},
		Failures:     map[string]string{},
	}
	ctx = logger.WithBatch(ctx, rep.ID)
	log := logger.C(ctx)

	timer := prometheus.NewTimer(metrics.CollectorDuration)
	defer timer.ObserveDuration()

	ctx, cancel := guardrails.ForRun(ctx, s.Cfg.Timeouts)
	defer cancel()

	err := s.Lease(ctx, guardrails.Slot(started, s.Cfg.Interval), func(ctx context.Context) error {
		return s.collect(ctx, &rep)
	})
	rep.FinishedAt = s.now().UTC()

	switch {
	case errors.Is(err, guardrails.ErrLeaseHeld):
		rep.Skipped = true
		metrics.CollectorRuns.WithLabelValues("skipped").Inc()
		log.Info().Msg("collection slot held by another replica, skipping")
		return rep, nil
	case err != nil:
		metrics.CollectorRuns.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("collection run failed")
		return rep, perr.WithOp(err, "collector.RunOnce")
	}

	s.record(ctx, rep)
	if err := s.Bus.Publish(ctx, bus.SubjectBatchCollected, rep.Event()); err != nil {
		log.Warn().Err(err).Msg("batch event not published")
	}

	outcome := "ok"
	if rep.Partial() {
		outcome = "partial"
	}
	metrics.CollectorRuns.WithLabelValues(outcome).Inc()
	metrics.CollectorLastSuccess.Set(float64(rep.FinishedAt.Unix()))
	log.Info().
		Int("stories", rep.Stories).
		Int("articles", rep.Articles).
		Int("observations", rep.TotalObservations()).
		Int("failures", len(rep.Failures)).
		Dur("took", rep.FinishedAt.Sub(started)).
		Msg("collection run finished")
	return rep, nil
}

func (s *Service) collect(ctx context.Context, rep *domain.BatchReport) error {
	hn, err := s.collectStories(ctx, rep)
	if err != nil {
		return err
	}
	rep.TopTerms = top(hn, s.Cfg.TopTerms)

	if s.News == nil || !s.News.Enabled() {
		rep.Disabled = append(rep.Disabled, newsapi.Platform)
	} else if err := s.collectNews(ctx, rep, terms(top(hn, s.Cfg.NewsKeywords))); err != nil {
		s.fail(ctx, rep, newsapi.Platform, err)
	}

	if s.Feeds == nil || !s.Feeds.Enabled() {
		rep.Disabled = append(rep.Disabled, feeds.Platform)
	} else {
		s.collectFeeds(ctx, rep)
	}
	return nil
}

func (s *Service) collectStories(ctx context.Context, rep *domain.BatchReport) ([]keywords.TermCount, error) {
	sctx, cancel := guardrails.ForSource(ctx, s.Cfg.Timeouts)
	items, err := s.Stories.TopStories(sctx)
	cancel()
	if err != nil {
		return nil, err
	}

	stories := make([]domain.Story, 0, len(items))
	perTitle := make([][]string, 0, len(items))
	for _, it := range items {
		stories = append(stories, domain.Story{
			SourceID:    it.ID,
			Platform:    hackernews.Platform,
			Title:       it.Title,
			Score:       it.Score,
			Comments:    it.Descendants,
			URL:         it.URL,
			PostedAt:    it.PostedAt(),
			CollectedAt: rep.StartedAt,
		})
		perTitle = append(perTitle, s.Ex.Extract(it.Title, s.Cfg.StoryTerms))
	}

	if err := s.withRepo(ctx, func(r domain.StorageRepo) (err error) {
		rep.Stories, err = r.InsertStories(ctx, rep.ID, stories)
		return err
	}); err != nil {
		return nil, err
	}
	if s.DB == nil {
		rep.Stories = len(stories)
	}

	counts := keywords.Tally(perTitle...)
	if err := s.appendCounts(ctx, rep, hackernews.Platform, counts); err != nil {
		return nil, err
	}
	return counts, nil
}

func (s *Service) collectNews(ctx context.Context, rep *domain.BatchReport, query []string) error {
	if len(query) == 0 {
		return nil
	}
	sctx, cancel := guardrails.ForSource(ctx, s.Cfg.Timeouts)
	hits, err := s.News.Search(sctx, query)
	cancel()
	if err != nil {
		return err
	}

	articles := make([]domain.Article, 0, len(hits))
	for _, h := range hits {
		articles = append(articles, domain.Article{
			Title:       h.Title,
			URL:         h.URL,
			Source:      h.Source,
			Platform:    newsapi.Platform,
			PublishedAt: h.PublishedAt,
			CollectedAt: rep.StartedAt,
		})
	}
	return s.storeArticles(ctx, rep, newsapi.Platform, articles)
}

func (s *Service) collectFeeds(ctx context.Context, rep *domain.BatchReport) {
	sctx, cancel := guardrails.ForSource(ctx, s.Cfg.Timeouts)
	entries, errs := s.Feeds.Fetch(sctx)
	cancel()
	for url, err := range errs {
		s.fail(ctx, rep, feeds.Platform+":"+url, err)
	}

	articles := make([]domain.Article, 0, len(entries))
	for _, e := range entries {
		articles = append(articles, domain.Article{
			Title:       e.Title,
			URL:         e.URL,
			Source:      e.Feed,
			Platform:    feeds.Platform,
			PublishedAt: e.PublishedAt,
			CollectedAt: rep.StartedAt,
		})
	}
	if err := s.storeArticles(ctx, rep, feeds.Platform, articles); err != nil {
		s.fail(ctx, rep, feeds.Platform, err)
	}
}

func (s *Service) storeArticles(ctx context.Context, rep *domain.BatchReport, platform string, articles []domain.Article) error {
	if len(articles) == 0 {
		return nil
	}
	if err := s.withRepo(ctx, func(r domain.StorageRepo) error {
		n, err := r.InsertArticles(ctx, rep.ID, articles)
		rep.Articles += n
		return err
	}); err != nil {
		return err
	}
	if s.DB == nil {
		rep.Articles += len(articles)
	}

	perTitle := make([][]string, len(articles))
	for i, a := range articles {
		perTitle[i] = s.Ex.Extract(a.Title, s.Cfg.ArticleTerms)
	}
	return s.appendCounts(ctx, rep, platform, keywords.Tally(perTitle...))
}

// appendCounts writes one observation per term stamped with the batch start
func (s *Service) appendCounts(ctx context.Context, rep *domain.BatchReport, platform string, counts []keywords.TermCount) error {
	if len(counts) == 0 {
		return nil
	}
	obs := make([]series.Observation, len(counts))
	for i, c := range counts {
		obs[i] = series.Observation{Term: c.Term, Platform: platform, Count: int64(c.Count), At: rep.StartedAt}
	}
	dctx, cancel := guardrails.ForDB(ctx, s.Cfg.Timeouts)
	defer cancel()
	if err := s.Store.Append(dctx, obs...); err != nil {
		return err
	}
	rep.Observations[platform] += len(obs)
	metrics.CollectorObservations.WithLabelValues(platform).Add(float64(len(obs)))
	return nil
}

// withRepo runs fn in one transaction when postgres is configured
func (s *Service) withRepo(ctx context.Context, fn func(domain.StorageRepo) error) error {
	if s.DB == nil || s.Binder == nil {
		return nil
	}
	dctx, cancel := guardrails.ForDB(ctx, s.Cfg.Timeouts)
	defer cancel()
	return repokit.WithTx(dctx, s.DB, func(q repokit.Queryer) error {
		return fn(s.Binder.Bind(q))
	})
}

func (s *Service) record(ctx context.Context, rep domain.BatchReport) {
	if err := s.withRepo(ctx, func(r domain.StorageRepo) error { return r.RecordBatch(ctx, rep) }); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("batch ledger not written")
	}
}

func (s *Service) fail(ctx context.Context, rep *domain.BatchReport, source string, err error) {
	rep.Failures[source] = err.Error()
	logger.C(ctx).Warn().Err(err).Str("source", source).Msg("secondary source failed")
}

// top returns the first n counts, Tally output is already ranked
func top(counts []keywords.TermCount, n int) []keywords.TermCount {
	if len(counts) > n {
		counts = counts[:n]
	}
	return append([]keywords.TermCount{}, counts...)
}

func terms(counts []keywords.TermCount) []string {
	out := make([]string, len(counts))
	for i, c := range counts {
		out[i] = c.Term
	}
	return out
}

// FailedSources lists the failed sources of rep in name order
func FailedSources(rep domain.BatchReport) []string {
	out := make([]string, 0, len(rep.Failures))
	for k := range rep.Failures {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
