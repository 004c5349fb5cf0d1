package httpkit

import (
	"net/http"
	"time"

	"trendflow/internal/platform/config"
	"trendflow/internal/platform/net/middleware"
)

// CommonStack is the per api middleware slice, read from a CORE_API_ style prefix
// CORS_ORIGINS, RATE_LIMIT (requests per minute per ip) and SLOW_MS are honoured
// the process wide middleware.Defaults stack is expected on the root router
func CommonStack(cfg config.Conf) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.CORS(middleware.CORSOptions{
			AllowedOrigins: cfg.MayCSV("CORS_ORIGINS", nil),
		}),
		middleware.AccessLogZerolog(middleware.AccessLogOptions{
			Slow:      time.Duration(cfg.MayInt("SLOW_MS", 500)) * time.Millisecond,
			SkipPaths: []string{"/api/v1/meta/health"},
		}),
		middleware.RateLimit(cfg.MayInt("RATE_LIMIT", 0), time.Minute),
		middleware.StripSlashes(),
	}
}
