package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCounter struct {
	mu    sync.Mutex
	hits  map[string]int
	reset time.Duration
	err   error
	keys  []string
}

func (m *memCounter) Hit(_ context.Context, key string, _ time.Duration) (int, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	if m.err != nil {
		return 0, 0, m.err
	}
	if m.hits == nil {
		m.hits = map[string]int{}
	}
	m.hits[key]++
	return m.hits[key], m.reset, nil
}

func keyFor(t *testing.T, fn KeyFunc, method, target, pattern string, setup func(*gin.Context)) string {
	t.Helper()
	var got string
	r := gin.New()
	r.Handle(method, pattern, func(c *gin.Context) {
		if setup != nil {
			setup(c)
		}
		got = fn(c)
	})
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "203.0.113.7:5555"
	r.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestRateLimitKeys(t *testing.T) {
	withUser := func(c *gin.Context) { c.Set("userID", "u-1") }
	withRealIP := func(c *gin.Context) { c.Set("real_ip", "198.51.100.4") }

	assert.Equal(t, "rl:ip:203.0.113.7", keyFor(t, KeyByIP(), http.MethodGet, "/login", "/login", nil))
	assert.Equal(t, "rl:ip:198.51.100.4", keyFor(t, KeyByIP(), http.MethodGet, "/login", "/login", withRealIP))

	assert.Equal(t, "rl:path:/studies/:id:ip:203.0.113.7",
		keyFor(t, KeyByIPAndPath(), http.MethodGet, "/studies/42", "/studies/:id", nil))

	assert.Equal(t, "rl:user:u-1", keyFor(t, KeyByUserID(), http.MethodGet, "/me", "/me", withUser))
	assert.Equal(t, "rl:user:anon:203.0.113.7", keyFor(t, KeyByUserID(), http.MethodGet, "/me", "/me", nil))

	assert.Equal(t, "rl:user:u-1:path:/studies/42/invitations",
		keyFor(t, KeyByUserAndPath(), http.MethodPost, "/studies/42/invitations", "/studies/:id/invitations", withUser))
	assert.Equal(t, "rl:user:anon:203.0.113.7:path:/studies/42/invitations",
		keyFor(t, KeyByUserAndPath(), http.MethodPost, "/studies/42/invitations", "/studies/:id/invitations", nil))
}

func limitedRouter(h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(h)
	r.Any("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func hit(r *gin.Engine, method string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitWith_RejectsOverLimit(t *testing.T) {
	counter := &memCounter{reset: 1500 * time.Millisecond}
	r := limitedRouter(RateLimitWith(counter, 2, time.Minute, KeyByIP(), nil))

	w := hit(r, http.MethodGet)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Reset"))

	w = hit(r, http.MethodGet)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = hit(r, http.MethodGet)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate limit exceeded")
}

func TestRateLimitWith_SkipsOptionsAndAllowed(t *testing.T) {
	counter := &memCounter{}
	allowAll := func(*gin.Context) bool { return true }

	r := limitedRouter(RateLimitWith(counter, 1, time.Minute, KeyByIP(), nil))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, hit(r, http.MethodOptions).Code)
	}

	r = limitedRouter(RateLimitWith(counter, 1, time.Minute, KeyByIP(), allowAll))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, hit(r, http.MethodGet).Code)
	}
	assert.Empty(t, counter.keys)
}

func TestRateLimitWith_FailsOpen(t *testing.T) {
	counter := &memCounter{err: errors.New("connection refused")}
	r := limitedRouter(RateLimitWith(counter, 1, time.Minute, KeyByIP(), nil))

	for i := 0; i < 3; i++ {
		w := hit(r, http.MethodGet)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
	require.Len(t, counter.keys, 3)
}

func TestRateLimit_NilRedisPassesThrough(t *testing.T) {
	r := limitedRouter(RateLimit(nil, 1, time.Minute, KeyByIP(), nil))
	for i := 0; i < 3; i++ {
		w := hit(r, http.MethodGet)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}
