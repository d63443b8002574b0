package middleware

import (
	"sync"
	"time"

	"github.com/anonto42/faith-connect/functions/internal/callable"
	"github.com/anonto42/faith-connect/functions/internal/metrics"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// DefaultLimiterIdleTTL is how long an unused caller bucket is kept
const DefaultLimiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller. Buckets idle longer than the
// idle TTL are evicted; the TTL is never shorter than a full refill, so an
// evicted caller comes back to the same full bucket it would have had.
type RateLimiter struct {
	limiters  map[string]*limiterEntry
	mu        sync.Mutex
	r         rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter creates a RateLimiter
func NewRateLimiter(r rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		r:        r,
		burst:    burst,
		idleTTL:  idleTTL(r, burst, DefaultLimiterIdleTTL),
		now:      time.Now,
	}
}

func idleTTL(r rate.Limit, burst int, floor time.Duration) time.Duration {
	if r <= 0 || r == rate.Inf {
		return floor
	}
	refill := time.Duration(float64(burst) / float64(r) * float64(time.Second))
	if refill > floor {
		return refill
	}
	return floor
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.idleTTL {
		rl.evictIdle(now)
	}

	entry, exists := rl.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// evictIdle drops buckets unused for idleTTL. Callers hold rl.mu.
func (rl *RateLimiter) evictIdle(now time.Time) {
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) >= rl.idleTTL {
			delete(rl.limiters, key)
		}
	}
	rl.lastSweep = now
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Middleware limits by caller UID, or by client IP for anonymous callers.
// It must run after FirebaseCallerMiddleware.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if caller := CallerFromContext(c); caller != nil {
				key = "uid:" + caller.UID
			}

			if !rl.getLimiter(key).Allow() {
				metrics.HttpRateLimitRejectionsTotal.Inc()
				return callable.WriteError(c, callable.NewError(callable.ResourceExhausted, "rate limit exceeded, slow down"))
			}
			return next(c)
		}
	}
}
