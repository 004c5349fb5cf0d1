package middleware

import (
	stdhttp "net/http"
	"runtime/debug"
	"strings"

	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/logger"
	pnet "trendflow/internal/platform/net"
)

// RecoverJSON converts panics into a JSON 500 and logs the stack with the request id
func RecoverJSON(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == stdhttp.ErrAbortHandler {
				panic(v)
			}
			reqID := pnet.RequestID(r.Context())

			// format stack like chi recover
			lines := strings.Split(string(debug.Stack()), "\n")
			logger.C(r.Context()).Error().
				Interface("panic", v).
				Str("path", r.URL.Path).
				Msgf("panic recovered\n%s", strings.Join(lines, "\n\t"))

			if reqID != "" {
				w.Header().Set("X-Request-ID", reqID)
			}
			writeError(w, r, perr.PanicErrf("internal error"))
		}()
		next.ServeHTTP(w, r)
	})
}
