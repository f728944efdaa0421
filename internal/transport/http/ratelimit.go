package http

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/linkspace/linkspace/internal/observability/logger"
	"github.com/linkspace/linkspace/internal/observability/metrics"
	"github.com/linkspace/linkspace/internal/ratelimit"
)

// RateLimitMiddleware rejects requests once the caller's IP has exhausted
// limiter. With headers set, every response carries X-RateLimit-Limit,
// X-RateLimit-Remaining and X-RateLimit-Reset. A limiter backend error lets
// the request through.
func RateLimitMiddleware(limiter ratelimit.Limiter, name string, m *metrics.HTTPMetrics, headers bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)

			d, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				slog.ErrorContext(r.Context(), "rate limiter unavailable",
					logger.Component(name),
					logger.ClientIP(ip),
					logger.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			if headers {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
			}

			if !d.Allowed {
				if m != nil {
					m.RateLimited(name)
				}
				slog.WarnContext(r.Context(), "rate limit exceeded",
					logger.Component(name),
					logger.ClientIP(ip),
				)
				w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfterSeconds()))
				respondError(w, http.StatusTooManyRequests, "Too many requests, try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP returns the host of RemoteAddr. Forwarding headers are only
// honoured when the router mounts middleware.RealIP for a trusted proxy.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
