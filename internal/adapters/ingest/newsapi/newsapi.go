// Package newsapi searches recent articles on newsapi.org
package newsapi

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"trendflow/internal/adapters/ingest/httpx"
	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/logger"
	"trendflow/internal/platform/metrics"
)

// Platform is the platform tag for observations from this source
const Platform = "news"

const (
	baseURLDefault  = "https://newsapi.org/v2"
	defaultPageSize = 10
	maxPageSize     = 100
)

// Article is one search hit
type Article struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Description string    `json:"description"`
	PublishedAt time.Time `json:"published_at"`
}

type wireArticle struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

type wireResponse struct {
	Status   string        `json:"status"`
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Articles []wireArticle `json:"articles"`
}

// Options configures the client
type Options struct {
	BaseURL  string
	APIKey   string
	PageSize int
	Language string
	HTTP     httpx.Options
}

// Client searches NewsAPI, a client without an api key is disabled
type Client struct {
	http     *httpx.Client
	key      string
	pageSize int
	lang     string
	log      logger.Logger
	warnOnce sync.Once
}

// New builds a client, zero options take defaults
func New(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.PageSize <= 0 {
		o.PageSize = defaultPageSize
	}
	if o.PageSize > maxPageSize {
		o.PageSize = maxPageSize
	}
	if o.Language == "" {
		o.Language = "en"
	}
	h := o.HTTP
	h.Source = Platform
	h.BaseURL = o.BaseURL
	return &Client{
		http:     httpx.New(h),
		key:      strings.TrimSpace(o.APIKey),
		pageSize: o.PageSize,
		lang:     o.Language,
		log:      *logger.Named("ingest.newsapi"),
	}
}

// Enabled reports whether an api key is configured
func (c *Client) Enabled() bool { return c.key != "" }

// Query joins keywords with OR the way the search endpoint expects
func Query(keywords []string) string {
	parts := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			parts = append(parts, k)
		}
	}
	return strings.Join(parts, " OR ")
}

// Search returns the newest articles matching any keyword
// without an api key it returns a Disabled error, logged once
func (c *Client) Search(ctx context.Context, keywords []string) ([]Article, error) {
	if !c.Enabled() {
		c.warnOnce.Do(func() { c.log.Warn().Msg("NEWS_API_KEY not set, news source disabled") })
		return nil, perr.Disabledf("newsapi: no api key configured")
	}
	q := Query(keywords)
	if q == "" {
		return []Article{}, nil
	}

	params := url.Values{
		"q":        {q},
		"apiKey":   {c.key},
		"sortBy":   {"publishedAt"},
		"language": {c.lang},
		"pageSize": {strconv.Itoa(c.pageSize)},
	}
	var resp wireResponse
	if err := c.http.GetJSON(ctx, "everything", params, &resp); err != nil {
		return nil, perr.WithOp(err, "newsapi.Search")
	}
	if resp.Status != "" && resp.Status != "ok" {
		return nil, perr.Upstreamf("newsapi: %s: %s", resp.Code, resp.Message)
	}

	out := make([]Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if strings.TrimSpace(a.Title) == "" || a.Title == "[Removed]" {
			continue
		}
		art := Article{
			Title:       a.Title,
			URL:         a.URL,
			Source:      a.Source.Name,
			Description: a.Description,
		}
		if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			art.PublishedAt = t.UTC()
		}
		out = append(out, art)
	}
	metrics.SourceItems.WithLabelValues(Platform).Add(float64(len(out)))
	return out, nil
}
