// Package httpx is the resilient HTTP transport shared by the content sources
// requests are rate limited, retried with backoff and guarded by a circuit breaker
package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/logger"
	"trendflow/internal/platform/metrics"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUA        = "trendflow-collector"
	defaultMaxRetry  = 3
	defaultRetryBase = 500 * time.Millisecond
	defaultRPS       = 10
	defaultTrip      = 5
	defaultCooldown  = 30 * time.Second
	maxBody          = 8 << 20
	maxBackoff       = 30 * time.Second
)

// Options configures a Client
type Options struct {
	// Source names the upstream in logs, metrics and errors
	Source    string
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// Retry config for transport errors, 429 and transient 5xx
	// MaxRetries 0 takes the default, < 0 disables retries
	MaxRetries int
	RetryBase  time.Duration

	// RPS and Burst shape the token bucket, RPS < 0 disables limiting
	RPS   float64
	Burst int

	// TripAfter consecutive failed calls open the breaker for Cooldown
	TripAfter uint32
	Cooldown  time.Duration

	// Header is sent on every request
	Header http.Header
}

// Client issues GET requests against one upstream
type Client struct {
	http    *http.Client
	opts    Options
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]
	log     logger.Logger
	now     func() time.Time
	sleep   func(context.Context, time.Duration) error
}

// New creates a Client with defaults filled in
func New(o Options) *Client {
	if o.Source == "" {
		o.Source = "http"
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	} else if o.MaxRetries == 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	if o.RPS == 0 {
		o.RPS = defaultRPS
	}
	if o.Burst <= 0 {
		o.Burst = 1
	}
	if o.TripAfter == 0 {
		o.TripAfter = defaultTrip
	}
	if o.Cooldown <= 0 {
		o.Cooldown = defaultCooldown
	}

	lim := rate.NewLimiter(rate.Inf, 0)
	if o.RPS > 0 {
		lim = rate.NewLimiter(rate.Limit(o.RPS), o.Burst)
	}

	c := &Client{
		http:    &http.Client{Timeout: o.Timeout},
		opts:    o,
		limiter: lim,
		log:     *logger.Named("ingest." + o.Source),
		now:     time.Now,
		sleep:   sleepCtx,
	}
	metrics.CircuitBreakerState.WithLabelValues(o.Source).Set(0)
	c.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        o.Source,
		MaxRequests: 1,
		Timeout:     o.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.TripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			c.log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
		// only upstream trouble counts against the breaker
		IsSuccessful: func(err error) bool {
			return err == nil || !perr.Retryable(err) || errors.Is(err, context.Canceled)
		},
	})
	return c
}

// Source returns the upstream name
func (c *Client) Source() string { return c.opts.Source }

// State returns the breaker state, closed means healthy
func (c *Client) State() gobreaker.State { return c.cb.State() }

// GetJSON fetches path and decodes the body into out
func (c *Client) GetJSON(ctx context.Context, path string, q url.Values, out any) error {
	body, err := c.Get(ctx, path, q)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUpstream, "%s: decode %s", c.opts.Source, path)
	}
	return nil
}

// Get fetches path relative to BaseURL, an absolute url is used as is
// the whole retry loop is one call as far as the breaker is concerned
func (c *Client) Get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	target := c.resolve(path, q)
	body, err := c.cb.Execute(func() ([]byte, error) { return c.do(ctx, target) })
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.SourceRequests.WithLabelValues(c.opts.Source, "rejected").Inc()
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s: circuit open", c.opts.Source)
	}
	return body, err
}

func (c *Client) resolve(path string, q url.Values) string {
	u := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		u = strings.TrimRight(c.opts.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	}
	if len(q) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + q.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, target string) ([]byte, error) {
	src := c.opts.Source
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "%s: build request", src)
		}
		for k, vv := range c.opts.Header {
			for _, v := range vv {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt >= c.opts.MaxRetries {
				metrics.SourceRequests.WithLabelValues(src, "error").Inc()
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s: request failed", src)
			}
			if err := c.retry(ctx, attempt, 0, "transport error"); err != nil {
				return nil, err
			}
			continue
		}

		c.log.Debug().
			Str("url", redact(target)).
			Int("status", resp.StatusCode).
			Int("attempt", attempt).
			Dur("latency", lat).
			Msg("source response")

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
			_ = resp.Body.Close()
			if err != nil {
				metrics.SourceRequests.WithLabelValues(src, "error").Inc()
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s: read body", src)
			}
			metrics.SourceRequests.WithLabelValues(src, "ok").Inc()
			return body, nil

		case resp.StatusCode == http.StatusTooManyRequests || transient(resp.StatusCode):
			wait := retryAfter(resp.Header, c.now())
			_ = drainAndClose(resp.Body)
			if attempt >= c.opts.MaxRetries {
				metrics.SourceRequests.WithLabelValues(src, "error").Inc()
				return nil, perr.FromStatus(resp.StatusCode, src)
			}
			if err := c.retry(ctx, attempt, wait, "retryable status"); err != nil {
				return nil, err
			}

		default:
			_ = drainAndClose(resp.Body)
			metrics.SourceRequests.WithLabelValues(src, "error").Inc()
			return nil, perr.FromStatus(resp.StatusCode, src)
		}
	}
}

func (c *Client) retry(ctx context.Context, attempt int, wait time.Duration, why string) error {
	if wait <= 0 {
		wait = backoff(c.opts.RetryBase, attempt)
	}
	metrics.SourceRequests.WithLabelValues(c.opts.Source, "retry").Inc()
	c.log.Warn().Dur("retry_in", wait).Int("attempt", attempt).Msg(why + ", retrying")
	return c.sleep(ctx, wait)
}
