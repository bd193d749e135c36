package ratelimit

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const (
	DEFAULT_WINDOW = time.Minute
	DEFAULT_MAX    = 60
)

// Limiter is a fixed-window counter per key. Windows live in a TTL cache and
// expire on their own; the first request for a key opens its window.
type Limiter struct {
	windows *ttlcache.Cache[string, *atomic.Int64]
	window  time.Duration
	max     int64
}

func NewLimiter(window time.Duration, max int64) *Limiter {
	if window <= 0 {
		window = DEFAULT_WINDOW
	}
	if max <= 0 {
		max = DEFAULT_MAX
	}

	// the window must expire a fixed duration after it opens; reads must not
	// extend it, or a steadily retrying client never gets unblocked
	windows := ttlcache.New[string, *atomic.Int64](
		ttlcache.WithDisableTouchOnHit[string, *atomic.Int64](),
	)
	go windows.Start()
	return &Limiter{
		windows: windows,
		window:  window,
		max:     max,
	}
}

// Allow counts a request against the key's current window. It returns whether
// the request may proceed, the remaining budget and when the window resets.
func (l *Limiter) Allow(key string) (bool, int64, time.Time) {
	item, _ := l.windows.GetOrSet(key, new(atomic.Int64), ttlcache.WithTTL[string, *atomic.Int64](l.window))
	count := item.Value().Add(1)
	resetAt := item.ExpiresAt()

	remaining := l.max - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= l.max, remaining, resetAt
}

func (l *Limiter) Stop() {
	l.windows.Stop()
}

// Key builds the per-client, per-endpoint-class limiter key.
func Key(clientIP string, class string) string {
	return fmt.Sprintf("%s|%s", clientIP, class)
}
