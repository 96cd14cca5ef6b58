package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/getmockd/schemagen/pkg/httputil"
)

// Middleware enforces limiter on every request. A nil limiter passes
// requests through.
func Middleware(limiter *PerIPLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, retryAfter := limiter.Allow(limiter.ClientIP(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Burst()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			httputil.WriteTooManyRequests(w, "rate_limit_exceeded", "Too many requests. Please slow down.")
		})
	}
}
