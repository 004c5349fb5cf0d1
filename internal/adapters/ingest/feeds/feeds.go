// Package feeds reads RSS and Atom feeds and returns sanitised entries
package feeds

import (
	"bytes"
	"context"
	"html"
	"time"

	"trendflow/internal/adapters/ingest/httpx"
	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/logger"
	"trendflow/internal/platform/metrics"
	pstrings "trendflow/internal/platform/strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

// Platform is the platform tag for observations from this source
const Platform = "rss"

// Entry is one feed item with a plain text title
type Entry struct {
	Feed        string    `json:"feed"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// Options configures the reader
type Options struct {
	URLs []string
	// PerFeed caps entries taken from each feed, newest first as published
	PerFeed int
	HTTP    httpx.Options
}

// Reader fetches a fixed list of feeds
type Reader struct {
	feeds   []feed
	perFeed int
	policy  *bluemonday.Policy
	log     logger.Logger
}

type feed struct {
	url    string
	client *httpx.Client
}

// New builds a reader, each feed gets its own breaker so one dead feed does not mute the rest
func New(o Options) *Reader {
	if o.PerFeed <= 0 {
		o.PerFeed = 25
	}
	r := &Reader{
		perFeed: o.PerFeed,
		policy:  bluemonday.StrictPolicy(),
		log:     *logger.Named("ingest.feeds"),
	}
	for _, u := range pstrings.Dedupe(o.URLs) {
		h := o.HTTP
		h.Source = Platform
		h.Header = map[string][]string{"Accept": {"application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.5"}}
		r.feeds = append(r.feeds, feed{url: u, client: httpx.New(h)})
	}
	return r
}

// Enabled reports whether any feed is configured
func (r *Reader) Enabled() bool { return len(r.feeds) > 0 }

// URLs returns the configured feed urls
func (r *Reader) URLs() []string {
	out := make([]string, len(r.feeds))
	for i, f := range r.feeds {
		out[i] = f.url
	}
	return out
}

// Fetch reads every feed, failed feeds are returned in the error map and do not stop the rest
func (r *Reader) Fetch(ctx context.Context) ([]Entry, map[string]error) {
	var (
		out  []Entry
		errs = map[string]error{}
	)
	for _, f := range r.feeds {
		if ctx.Err() != nil {
			errs[f.url] = ctx.Err()
			continue
		}
		entries, err := r.fetchOne(ctx, f)
		if err != nil {
			r.log.Warn().Err(err).Str("feed", f.url).Msg("feed failed")
			errs[f.url] = err
			continue
		}
		out = append(out, entries...)
	}
	metrics.SourceItems.WithLabelValues(Platform).Add(float64(len(out)))
	return out, errs
}

func (r *Reader) fetchOne(ctx context.Context, f feed) ([]Entry, error) {
	body, err := f.client.Get(ctx, f.url, nil)
	if err != nil {
		return nil, err
	}
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUpstream, "feeds: parse %s", f.url)
	}

	name := r.Clean(parsed.Title)
	out := make([]Entry, 0, min(len(parsed.Items), r.perFeed))
	for _, it := range parsed.Items {
		if len(out) == r.perFeed {
			break
		}
		title := r.Clean(it.Title)
		if title == "" {
			continue
		}
		e := Entry{Feed: name, Title: title, URL: it.Link}
		switch {
		case it.PublishedParsed != nil:
			e.PublishedAt = it.PublishedParsed.UTC()
		case it.UpdatedParsed != nil:
			e.PublishedAt = it.UpdatedParsed.UTC()
		}
		out = append(out, e)
	}
	return out, nil
}

// Clean strips markup from a title and decodes entities into plain text
func (r *Reader) Clean(s string) string {
	return pstrings.Squash(html.UnescapeString(r.policy.Sanitize(s)))
}
