package module

import (
	"time"

	"trendflow/internal/platform/config"
)

// Options holds the collector settings
type Options struct {
	Interval time.Duration

	HNBaseURL     string
	HNLimit       int
	HNConcurrency int

	NewsAPIKey   string
	NewsBaseURL  string
	NewsKeywords int
	NewsPageSize int

	Feeds     []string
	FeedItems int

	RPS         float64
	Burst       int
	Retries     int
	HTTPTimeout time.Duration

	RunTimeout    time.Duration
	SourceTimeout time.Duration
	DBTimeout     time.Duration

	Leases      bool
	MetricsAddr string
}

// FromConfig reads COLLECTOR_* and NEWS_API_KEY
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("COLLECTOR_")
	return Options{
		Interval: c.MayDuration("INTERVAL", time.Hour),

		HNBaseURL:     c.MayURL("HN_BASE_URL", ""),
		HNLimit:       c.MayInt("HN_LIMIT", 100),
		HNConcurrency: c.MayInt("HN_CONCURRENCY", 8),

		NewsAPIKey:   cfg.MayString("NEWS_API_KEY", ""),
		NewsBaseURL:  c.MayURL("NEWS_BASE_URL", ""),
		NewsKeywords: c.MayInt("NEWS_KEYWORDS", 5),
		NewsPageSize: c.MayInt("NEWS_PAGE_SIZE", 10),

		Feeds:     c.MayCSV("FEEDS", nil),
		FeedItems: c.MayInt("FEED_ITEMS", 25),

		RPS:         c.MayFloat64("RPS", 5),
		Burst:       c.MayInt("BURST", 5),
		Retries:     c.MayInt("RETRIES", 3),
		HTTPTimeout: c.MayDuration("HTTP_TIMEOUT", 15*time.Second),

		RunTimeout:    c.MayDuration("RUN_TIMEOUT", 10*time.Minute),
		SourceTimeout: c.MayDuration("SOURCE_TIMEOUT", 2*time.Minute),
		DBTimeout:     c.MayDuration("DB_TIMEOUT", 30*time.Second),

		Leases:      c.MayBool("LEASES", false),
		MetricsAddr: c.MayString("METRICS_ADDR", ":9108"),
	}
}
