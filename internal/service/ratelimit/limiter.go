// Package ratelimit throttles the endpoints that spend money upstream (caption
// generation, cast publishing) with a token bucket per client key.
package ratelimit

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	apphttp "ChartCast/pkg/http"
)

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter is a keyed token bucket. Idle buckets are pruned lazily.
type Limiter struct {
	mu       sync.Mutex
	m        map[string]*bucket
	capacity float64
	refill   float64 // tokens per second
	idle     time.Duration
	now      func() time.Time
	lastGC   time.Time
}

// New builds a limiter allowing burst requests at once and refillPerSec after.
func New(burst int, refillPerSec float64) *Limiter {
	return &Limiter{
		m:        make(map[string]*bucket),
		capacity: float64(burst),
		refill:   refillPerSec,
		idle:     10 * time.Minute,
		now:      time.Now,
	}
}

// Allow consumes one token for key if available.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.gc(now)

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.m[key] = b
	}

	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * l.refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

func (l *Limiter) gc(now time.Time) {
	if now.Sub(l.lastGC) < l.idle {
		return
	}
	for k, b := range l.m {
		if now.Sub(b.last) > l.idle {
			delete(l.m, k)
		}
	}
	l.lastGC = now
}

// Middleware rejects requests over the limit with a 429 envelope. Clients are
// keyed by route and real IP.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.Path() + "|" + c.RealIP()) {
				return apphttp.AppErrorResponse(c, apphttp.TooManyRequestsError("Too many requests, slow down."))
			}
			return next(c)
		}
	}
}
