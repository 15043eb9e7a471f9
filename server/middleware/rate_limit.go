// Package middleware provides HTTP middleware shared by the routers.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	// Buckets unseen for this long are dropped; a full bucket refills in
	// well under a minute, so nothing useful is lost.
	bucketIdleExpiry = 3 * time.Minute

	// Idle buckets are swept before inserting a new key once the map
	// reaches this size. Keys are untrusted client IPs, so the map must
	// not grow without bound.
	sweepThreshold = 1024
)

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per key.
type RateLimiter struct {
	mu     sync.Mutex
	limits map[string]*clientBucket

	perSecond rate.Limit
	burst     int
	now       func() time.Time
}

// NewRateLimiter creates a rate limiter allowing perSecond requests per
// key with the given burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limits:    make(map[string]*clientBucket),
		perSecond: rate.Limit(perSecond),
		burst:     burst,
		now:       time.Now,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if bucket, ok := rl.limits[key]; ok {
		bucket.lastSeen = now
		return bucket.limiter
	}

	if len(rl.limits) >= sweepThreshold {
		rl.sweepLocked(now)
	}
	bucket := &clientBucket{
		limiter:  rate.NewLimiter(rl.perSecond, rl.burst),
		lastSeen: now,
	}
	rl.limits[key] = bucket
	return bucket.limiter
}

// sweepLocked drops buckets that have been idle past expiry. Callers
// must hold rl.mu.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	for key, bucket := range rl.limits {
		if now.Sub(bucket.lastSeen) > bucketIdleExpiry {
			delete(rl.limits, key)
		}
	}
}

// Allow reports whether a request is admitted for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Middleware returns an Echo middleware that limits requests per client
// IP, answering 429 when the budget is exhausted.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": "请求过于频繁，请稍后再试",
				})
			}
			return next(c)
		}
	}
}
