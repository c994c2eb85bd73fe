package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/qualopt/pkg/response"
)

// ipFromCtx prefers the address resolved by RealIPMiddleware.
func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// routeOf returns the registered route pattern so /studies/1 and /studies/2
// share a bucket.
func routeOf(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

// KeyFunc names the bucket a request is counted against.
type KeyFunc func(c *gin.Context) string

// AllowFunc reports whether a request skips the limiter entirely.
type AllowFunc func(*gin.Context) bool

func KeyByIP() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:ip:" + ipFromCtx(c)
	}
}

func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:path:" + routeOf(c) + ":ip:" + ipFromCtx(c)
	}
}

// userOrIP falls back to the client IP for unauthenticated requests.
func userOrIP(c *gin.Context) string {
	if uid := c.GetString("userID"); uid != "" {
		return uid
	}
	return "anon:" + ipFromCtx(c)
}

func KeyByUserID() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:user:" + userOrIP(c)
	}
}

// KeyByUserAndPath limits one user on one resource, e.g. invitation sends per
// study. The concrete path is used, not the route pattern.
func KeyByUserAndPath() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:user:" + userOrIP(c) + ":path:" + c.Request.URL.Path
	}
}

// Counter increments the hit count of key inside a fixed window and returns
// the new count and the time left until the window resets.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int, reset time.Duration, err error)
}

// INCR, set the expiry on first hit and return {count, pttl} in one round trip.
var hitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

type redisCounter struct{ rdb *redis.Client }

func NewRedisCounter(rdb *redis.Client) Counter {
	return redisCounter{rdb: rdb}
}

func (r redisCounter) Hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	res, err := hitScript.Run(ctx, r.rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}
	return int(res[0]), time.Duration(res[1]) * time.Millisecond, nil
}

// RateLimit counts requests in Redis. A nil client disables limiting.
func RateLimit(rdb *redis.Client, max int, window time.Duration, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	if rdb == nil {
		return passThrough
	}
	return RateLimitWith(NewRedisCounter(rdb), max, window, keyFn, allow)
}

func passThrough(c *gin.Context) { c.Next() }

// RateLimitWith sets X-RateLimit-* headers on every counted request and
// rejects with 429 once max is exceeded. Counter errors fail open.
func RateLimitWith(counter Counter, max int, window time.Duration, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	if counter == nil || max <= 0 || window <= 0 || keyFn == nil {
		return passThrough
	}
	return func(c *gin.Context) {
		if allow != nil && allow(c) {
			c.Next()
			return
		}
		if strings.EqualFold(c.Request.Method, http.MethodOptions) {
			c.Next()
			return
		}

		count, reset, err := counter.Hit(c.Request.Context(), keyFn(c), window)
		if err != nil {
			c.Next()
			return
		}

		resetSec := 0
		if reset > 0 {
			resetSec = int((reset + time.Second - 1) / time.Second)
		}
		remaining := max - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if count > max {
			if resetSec > 0 {
				c.Header("Retry-After", strconv.Itoa(resetSec))
			}
			response.Error[any](c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
