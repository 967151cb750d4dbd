package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"seniorguard/internal/config"
	"seniorguard/pkg/logger"
)

// Limiter counts a request against a window. cache.RedisCache implements it.
type Limiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, time.Time, error)
}

// RateLimiter returns middleware that limits requests per client IP.
// It fails open when the limiter backend errors.
func RateLimiter(l Limiter, cfg config.RateLimitConfig, log *logger.Logger) func(next http.Handler) http.Handler {
	log = log.WithComponent("ratelimit")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			allowed, remaining, resetTime, err := l.CheckRateLimit(
				r.Context(),
				clientID(r),
				int64(cfg.RequestsPerMinute),
				time.Minute,
			)
			if err != nil {
				log.Warn().Err(err).Msg("rate limit check failed, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerMinute))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.FormatInt(int64(time.Until(resetTime).Seconds()), 10))
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientID keys the limit on the client IP. RealIP runs first, so RemoteAddr already honors proxy headers.
func clientID(r *http.Request) string {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return "ip:" + ip
}
