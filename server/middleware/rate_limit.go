// Package middleware holds echo middleware shared by the HTTP API.
package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	aierrors "github.com/hrygo/alfred/server/internal/errors"
)

// Defaults when the caller passes non-positive values.
const (
	DefaultRatePerSecond = 2.0
	DefaultBurst         = 5
	idleLimiterTTL       = 30 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key, usually the user id.
type RateLimiter struct {
	mu     sync.Mutex
	limits map[string]*limiterEntry
	rate   rate.Limit
	burst  int
	now    func() time.Time
}

// NewRateLimiter creates a limiter allowing perSecond requests with the
// given burst for each key.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if perSecond <= 0 {
		perSecond = DefaultRatePerSecond
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &RateLimiter{
		limits: make(map[string]*limiterEntry),
		rate:   rate.Limit(perSecond),
		burst:  burst,
		now:    time.Now,
	}
}

// getLimiter gets or creates a limiter for the given key and drops limiters
// idle for longer than idleLimiterTTL.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if e, ok := rl.limits[key]; ok {
		e.lastSeen = now
		return e.limiter
	}

	for k, e := range rl.limits {
		if now.Sub(e.lastSeen) > idleLimiterTTL {
			delete(rl.limits, k)
		}
	}
	e := &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst), lastSeen: now}
	rl.limits[key] = e
	return e.limiter
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Size returns the number of tracked keys.
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limits)
}

// KeyFunc extracts the rate-limit key from a request. An empty key is not limited.
type KeyFunc func(c echo.Context) string

// Middleware rejects requests over the limit with 429 and an AIError body.
func (rl *RateLimiter) Middleware(key KeyFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			k := key(c)
			if k == "" || rl.Allow(k) {
				return next(c)
			}
			slog.Warn("rate limit exceeded",
				"key", k,
				"path", c.Path())
			e := aierrors.RateLimitExceeded("too many requests, please slow down")
			return c.JSON(e.HTTPStatus(), map[string]string{
				"code":    string(e.Code),
				"message": e.Message,
			})
		}
	}
}
