// Rate limiting for the admin endpoints. Each client gets a token budget per
// window. Regeneration is charged per pipeline stage it runs, so a client
// stepping through stages and one rebuilding whole worlds draw on the same
// budget at the same rate of work.
package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter tracks per-client token budgets over a fixed window.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	budget    int           // tokens per window
	window    time.Duration // budget refill period
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	tokens  int
	resetAt time.Time
}

// NewRateLimiter creates a limiter granting budget tokens per window.
func NewRateLimiter(budget int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		budget:  budget,
		window:  window,
		now:     time.Now,
	}
}

// Take spends cost tokens from client's budget. When the budget cannot cover
// cost nothing is spent and the wait until the next refill is returned.
// A cost above the whole budget never succeeds.
func (rl *RateLimiter) Take(client string, cost int) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	b, ok := rl.buckets[client]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{tokens: rl.budget, resetAt: now.Add(rl.window)}
		rl.buckets[client] = b
	}
	if b.tokens < cost {
		return false, b.resetAt.Sub(now)
	}
	b.tokens -= cost
	return true, 0
}

// sweep drops expired buckets at most once per window.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	rl.lastSweep = now
	for client, b := range rl.buckets {
		if !now.Before(b.resetAt) {
			delete(rl.buckets, client)
		}
	}
}

// clientIP returns the first X-Forwarded-For address, or the remote host.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// tooMany writes a 429 with a Retry-After rounded up to whole seconds.
func tooMany(w http.ResponseWriter, wait time.Duration) {
	secs := int((wait + time.Second - 1) / time.Second)
	w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
	http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
}

// RateLimitMiddleware charges cost tokens per request. Returns 429 if exceeded.
func RateLimitMiddleware(rl *RateLimiter, cost int, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ok, wait := rl.Take(clientIP(r), cost); !ok {
			tooMany(w, wait)
			return
		}
		next(w, r)
	}
}
