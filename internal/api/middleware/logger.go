package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"seniorguard/pkg/logger"
)

// Logger returns a middleware that logs every request with its status and latency.
// Bodies are never logged; they carry the messages being scanned.
func Logger(log *logger.Logger) func(next http.Handler) http.Handler {
	log = log.WithComponent("http")
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				reqLog := log.WithRequestID(middleware.GetReqID(r.Context()))
				ev := reqLog.Info()
				if ww.Status() >= http.StatusInternalServerError {
					ev = reqLog.Error()
				}
				ev.Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("request completed")
			}()

			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}
