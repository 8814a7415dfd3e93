package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"storefront-client/pkg/utils"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles gateway callers per client IP. It keeps the UI from
// hammering the backend through the gateway (a stuck retry loop, a runaway tab).
type RateLimiter struct {
	mu            sync.Mutex
	visitors      map[string]*visitor
	limit         rate.Limit
	burst         int
	cleanupPeriod time.Duration
	visitorTTL    time.Duration
	cancel        context.CancelFunc
}

// NewRateLimiter starts a limiter whose stale visitors are swept every
// cleanupPeriod until ctx ends or Shutdown is called.
func NewRateLimiter(ctx context.Context, limit rate.Limit, burst int, cleanupPeriod, visitorTTL time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors:      make(map[string]*visitor),
		limit:         limit,
		burst:         burst,
		cleanupPeriod: cleanupPeriod,
		visitorTTL:    visitorTTL,
	}
	ctx, rl.cancel = context.WithCancel(ctx)
	go rl.cleanupLoop(ctx)
	return rl
}

func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := rl.limiterFor(getClientIP(r))

			res := limiter.Reserve()
			if !res.OK() {
				tooMany(w, time.Second)
				return
			}
			if delay := res.Delay(); delay > 0 {
				res.Cancel()
				tooMany(w, delay)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func tooMany(w http.ResponseWriter, retryAfter time.Duration) {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	utils.WriteError(w, http.StatusTooManyRequests, "Too many requests, slow down")
}

func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(rl.cleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep(time.Now())
		case <-ctx.Done():
			return
		}
	}
}

func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.visitorTTL {
			delete(rl.visitors, ip)
		}
	}
}

// Shutdown stops the sweep goroutine.
func (rl *RateLimiter) Shutdown() {
	rl.cancel()
}
