// Package hackernews reads the Hacker News front page through the public firebase api
package hackernews

import (
	"context"
	"fmt"
	"sync"
	"time"

	"trendflow/internal/adapters/ingest/httpx"
	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/logger"
	"trendflow/internal/platform/metrics"

	"golang.org/x/sync/errgroup"
)

// Platform is the platform tag for observations from this source
const Platform = "hackernews"

const (
	baseURLDefault     = "https://hacker-news.firebaseio.com/v0"
	defaultLimit       = 100
	defaultConcurrency = 8
)

// Item is a Hacker News story as returned by /item/{id}.json
type Item struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	URL         string `json:"url"`
	Time        int64  `json:"time"`
	Deleted     bool   `json:"deleted"`
	Dead        bool   `json:"dead"`
}

// PostedAt is the submission time in UTC
func (i Item) PostedAt() time.Time { return time.Unix(i.Time, 0).UTC() }

// usable drops deleted, dead and untitled items
func (i Item) usable() bool { return !i.Deleted && !i.Dead && i.Title != "" }

// Options configures the client
type Options struct {
	BaseURL string
	// Limit caps how many top story ids are resolved
	Limit int
	// Concurrency bounds parallel item fetches
	Concurrency int
	HTTP        httpx.Options
}

// Client fetches top stories
type Client struct {
	http  *httpx.Client
	limit int
	conc  int
	log   logger.Logger
}

// New builds a client, zero options take defaults
func New(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.Limit <= 0 {
		o.Limit = defaultLimit
	}
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency
	}
	h := o.HTTP
	h.Source = Platform
	h.BaseURL = o.BaseURL
	return &Client{
		http:  httpx.New(h),
		limit: o.Limit,
		conc:  o.Concurrency,
		log:   *logger.Named("ingest.hackernews"),
	}
}

// TopStories returns up to the configured limit of current top stories in rank order
// a failing id list fails the call, a failing single item is logged and skipped
func (c *Client) TopStories(ctx context.Context) ([]Item, error) {
	var ids []int64
	if err := c.http.GetJSON(ctx, "topstories.json", nil, &ids); err != nil {
		return nil, perr.WithOp(err, "hackernews.TopStories")
	}
	if len(ids) > c.limit {
		ids = ids[:c.limit]
	}

	slots := make([]*Item, len(ids))
	var (
		mu      sync.Mutex
		skipped int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.conc)
	for i, id := range ids {
		g.Go(func() error {
			var it Item
			if err := c.http.GetJSON(gctx, fmt.Sprintf("item/%d.json", id), nil, &it); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.log.Warn().Err(err).Int64("id", id).Msg("skipping item")
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}
			if it.usable() {
				slots[i] = &it
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Item, 0, len(slots))
	for _, it := range slots {
		if it != nil {
			out = append(out, *it)
		}
	}
	metrics.SourceItems.WithLabelValues(Platform).Add(float64(len(out)))
	c.log.Debug().Int("ids", len(ids)).Int("items", len(out)).Int("skipped", skipped).Msg("top stories fetched")
	return out, nil
}
