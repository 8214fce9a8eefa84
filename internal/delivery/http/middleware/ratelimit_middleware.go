package middleware

import (
	"net/http"
	"sync"
	"time"

	"saasbase/config"
	"saasbase/internal/delivery/http/response"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const defaultCleanupInterval = 5 * time.Minute

// clientLimiter pairs a token bucket with its last access time so idle
// entries can be evicted.
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimitMiddleware throttles login starts per client IP. Login initiation
// is the only unauthenticated endpoint that triggers outbound provider
// traffic, so it gets its own bucket.
type RateLimitMiddleware struct {
	enabled         bool
	limit           rate.Limit
	burst           int
	cleanupInterval time.Duration

	mu       sync.Mutex
	limiters map[string]*clientLimiter
	stopCh   chan struct{}
}

// NewRateLimitMiddleware creates the limiter and starts its eviction loop.
func NewRateLimitMiddleware(cfg *config.Config) *RateLimitMiddleware {
	rl := &RateLimitMiddleware{
		limiters: make(map[string]*clientLimiter),
		stopCh:   make(chan struct{}),
	}

	if cfg.RateLimit == nil || !cfg.RateLimit.Enabled {
		return rl
	}

	rl.enabled = true
	rl.limit = rate.Limit(cfg.RateLimit.RequestsPerMin / 60.0)
	rl.burst = cfg.RateLimit.Burst
	if rl.burst <= 0 {
		rl.burst = 1
	}
	rl.cleanupInterval = cfg.RateLimit.CleanupInterval
	if rl.cleanupInterval <= 0 {
		rl.cleanupInterval = defaultCleanupInterval
	}

	go rl.cleanupLoop()

	return rl
}

// Stop halts the background eviction loop.
func (rl *RateLimitMiddleware) Stop() {
	if rl.enabled {
		close(rl.stopCh)
	}
}

// Limit is the Echo middleware function.
func (rl *RateLimitMiddleware) Limit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !rl.enabled {
			return next(c)
		}

		if !rl.limiterFor(c.RealIP()).Allow() {
			return response.Error(c, http.StatusTooManyRequests,
				"RATE_LIMITED", "Too many login attempts", "")
		}

		return next(c)
	}
}

func (rl *RateLimitMiddleware) limiterFor(clientIP string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if cl, ok := rl.limiters[clientIP]; ok {
		cl.lastAccess = time.Now()

		return cl.limiter
	}

	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters[clientIP] = &clientLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

func (rl *RateLimitMiddleware) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup evicts entries idle for more than twice the cleanup interval.
func (rl *RateLimitMiddleware) cleanup() {
	ttl := rl.cleanupInterval * 2
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for clientIP, cl := range rl.limiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(rl.limiters, clientIP)
		}
	}
}
