package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedLimiter(budget int, window time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(budget, window)
	rl.now = clock.now
	return rl, clock
}

func TestTakeSpendsBudget(t *testing.T) {
	rl, clock := newClockedLimiter(6, time.Hour)

	ok, _ := rl.Take("a", 5)
	require.True(t, ok)
	ok, _ = rl.Take("a", 1)
	require.True(t, ok)

	clock.advance(20 * time.Minute)
	ok, wait := rl.Take("a", 1)
	assert.False(t, ok)
	assert.Equal(t, 40*time.Minute, wait)

	ok, _ = rl.Take("b", 6)
	assert.True(t, ok, "clients have separate budgets")
}

func TestDeniedTakeSpendsNothing(t *testing.T) {
	rl, _ := newClockedLimiter(6, time.Hour)

	ok, _ := rl.Take("a", 2)
	require.True(t, ok)
	ok, _ = rl.Take("a", 5)
	require.False(t, ok)
	ok, _ = rl.Take("a", 4)
	assert.True(t, ok)
}

func TestBudgetRefillsAfterWindow(t *testing.T) {
	rl, clock := newClockedLimiter(5, time.Hour)

	ok, _ := rl.Take("a", 5)
	require.True(t, ok)
	ok, _ = rl.Take("a", 1)
	require.False(t, ok)

	clock.advance(time.Hour)
	ok, _ = rl.Take("a", 5)
	assert.True(t, ok)
}

func TestCostAboveBudgetNeverSucceeds(t *testing.T) {
	rl, clock := newClockedLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, wait := rl.Take("a", 4)
		assert.False(t, ok)
		assert.Positive(t, wait)
		clock.advance(2 * time.Minute)
	}
}

func TestSweepDropsExpiredBuckets(t *testing.T) {
	rl, clock := newClockedLimiter(2, time.Minute)

	for _, c := range []string{"a", "b", "c"} {
		ok, _ := rl.Take(c, 1)
		require.True(t, ok)
	}
	require.Len(t, rl.buckets, 3)

	clock.advance(2 * time.Minute)
	ok, _ := rl.Take("d", 1)
	require.True(t, ok)
	assert.Len(t, rl.buckets, 1)
}

func TestMiddlewareSetsRetryAfter(t *testing.T) {
	rl, _ := newClockedLimiter(1, 90*time.Second)
	h := RateLimitMiddleware(rl, 1, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()
	h(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "90", rr.Header().Get("Retry-After"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4242"
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", clientIP(req))
}
