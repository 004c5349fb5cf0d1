package middleware

import (
	"net/http"
	"time"

	perr "trendflow/internal/platform/errors"
	pnet "trendflow/internal/platform/net"

	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
)

// RateLimit caps requests per client ip within window
// limit <= 0 turns the limiter off
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			err := perr.Newf(perr.ErrorCodeTooManyRequests, "rate limit of %d requests per %s exceeded", limit, window)
			writeError(w, r, err)
		}),
	)
}

// errorWire mirrors the api envelope without importing the http package
type errorWire struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, wire := perr.HTTP(err)
	body := errorWire{
		StatusCode: status,
		Status:     http.StatusText(status),
		Code:       wire.Code,
		Error:      wire.Message,
		RequestID:  pnet.RequestID(r.Context()),
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
