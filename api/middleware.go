package api

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/solbridge-labs/solbridge/api/handlers"
	"github.com/solbridge-labs/solbridge/ratelimit"
)

type RequestLimiter interface {
	Allow(key string) (bool, int64, time.Time)
}

// rateLimited wraps a handler with a fixed-window limit keyed by client IP
// and endpoint class. Both quote and session endpoints share the limiter but
// count against separate windows.
func rateLimited(limiter RequestLimiter, class string, next http.HandlerFunc) http.HandlerFunc {
	if limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ok, remaining, resetAt := limiter.Allow(ratelimit.Key(clientIP(r), class))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if !ok {
			retryAfter := int(time.Until(resetAt).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			handlers.JSONError(w, fmt.Errorf("rate limit exceeded, retry after %ds", retryAfter), http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// clientIP prefers the first X-Forwarded-For hop when running behind a proxy.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
