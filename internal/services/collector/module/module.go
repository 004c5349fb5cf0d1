// Package module wires the collector: sources, storage, bus and the scheduler
package module

import (
	"os"

	"trendflow/internal/adapters/ingest/feeds"
	"trendflow/internal/adapters/ingest/hackernews"
	"trendflow/internal/adapters/ingest/httpx"
	"trendflow/internal/adapters/ingest/newsapi"
	"trendflow/internal/core/version"
	"trendflow/internal/modkit"
	perr "trendflow/internal/platform/errors"
	phttp "trendflow/internal/platform/net/http"
	"trendflow/internal/services/collector/domain"
	"trendflow/internal/services/collector/guardrails"
	"trendflow/internal/services/collector/repo"
	"trendflow/internal/services/collector/service"
)

// Ports exposed by the collector module
type Ports struct {
	Runner    domain.RunnerPort
	Scheduler *service.Scheduler
}

// Module implements the collector module, it mounts no routes
type Module struct {
	opts  Options
	ports Ports
}

// New builds the collector, the keywords store arrives through modkit.WithPorts(domain.Upstream{...})
func New(deps modkit.Deps, opts Options, mopts ...modkit.Option) (*Module, error) {
	b := modkit.Build([]modkit.Option{modkit.WithName("collector")}, mopts...)
	up, ok := modkit.PortsAs[domain.Upstream](b)
	if !ok || up.Keywords == nil {
		return nil, perr.InvalidArgf("collector: keywords store port is required")
	}

	h := httpx.Options{
		UserAgent:  "trendflow-collector/" + version.Info().Version,
		Timeout:    opts.HTTPTimeout,
		MaxRetries: opts.Retries,
		RPS:        opts.RPS,
		Burst:      opts.Burst,
	}

	hn := hackernews.New(hackernews.Options{
		BaseURL:     opts.HNBaseURL,
		Limit:       opts.HNLimit,
		Concurrency: opts.HNConcurrency,
		HTTP:        h,
	})
	news := newsapi.New(newsapi.Options{
		BaseURL:  opts.NewsBaseURL,
		APIKey:   opts.NewsAPIKey,
		PageSize: opts.NewsPageSize,
		HTTP:     h,
	})
	fs := feeds.New(feeds.Options{URLs: opts.Feeds, PerFeed: opts.FeedItems, HTTP: h})

	lease := guardrails.NoLease
	if opts.Leases && deps.PG != nil {
		host, _ := os.Hostname()
		lease = guardrails.MakeAdvisoryLease(deps.PG, host)
	}

	svc := service.New(
		deps.PG, repo.NewPG(), up.Keywords,
		hn, news, fs,
		deps.Bus, lease,
		service.Config{
			NewsKeywords: opts.NewsKeywords,
			Interval:     opts.Interval,
			Timeouts: guardrails.Timeouts{
				Run:    opts.RunTimeout,
				Source: opts.SourceTimeout,
				DB:     opts.DBTimeout,
			},
		},
	)

	return &Module{
		opts:  opts,
		ports: Ports{Runner: svc, Scheduler: service.NewScheduler(svc, opts.Interval)},
	}, nil
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "collector" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(phttp.Router) {}
