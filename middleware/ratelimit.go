package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmitrymomot/waypoint/core/handler"
	"github.com/dmitrymomot/waypoint/core/router"
)

// ErrTooManyRequests is returned when a client exceeds its rate limit.
var ErrTooManyRequests = &router.Error{
	Status:  http.StatusTooManyRequests,
	Code:    "TOO_MANY_REQUESTS",
	Message: "too many requests",
}

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// Rate is the sustained number of requests per second per key (default: 5)
	Rate rate.Limit
	// Burst is the maximum number of requests allowed at once (default: 20)
	Burst int
	// KeyExtractor defines the rate limiting key (default: client IP)
	KeyExtractor func(ctx handler.Context) string
	// IdleTTL drops limiters of keys not seen for this long (default: 1h)
	IdleTTL time.Duration
	// SetHeaders adds X-RateLimit-* and Retry-After headers
	SetHeaders bool
}

// RateLimit creates a token bucket rate limiting middleware. Each key gets
// its own limiter; requests over the limit fail with ErrTooManyRequests.
func RateLimit[C handler.Context](cfg RateLimitConfig) handler.Middleware[C] {
	if cfg.Rate <= 0 {
		cfg.Rate = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 20
	}
	if cfg.KeyExtractor == nil {
		cfg.KeyExtractor = GetClientIP
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = time.Hour
	}

	visitors := newVisitors(cfg.Rate, cfg.Burst, cfg.IdleTTL)

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) (any, error) {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			limiter := visitors.fetch(cfg.KeyExtractor(ctx), time.Now())
			res := limiter.Reserve()
			delay := res.Delay()
			allowed := res.OK() && delay == 0
			if !allowed {
				res.Cancel()
			}

			if cfg.SetHeaders {
				h := ctx.ResponseWriter().Header()
				h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
				h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, int(math.Floor(limiter.Tokens())))))
				if !allowed {
					h.Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
				}
			}

			if !allowed {
				return nil, ErrTooManyRequests
			}
			return next(ctx)
		}
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitors maps rate limiting keys to their limiters.
type visitors struct {
	mu        sync.Mutex
	val       map[string]*visitor
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
}

func newVisitors(limit rate.Limit, burst int, ttl time.Duration) *visitors {
	return &visitors{
		val:       make(map[string]*visitor),
		limit:     limit,
		burst:     burst,
		ttl:       ttl,
		lastSweep: time.Now(),
	}
}

// fetch returns the limiter for key, creating it on first sight. Idle keys
// are swept at most once per TTL.
func (vs *visitors) fetch(key string, now time.Time) *rate.Limiter {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if now.Sub(vs.lastSweep) > vs.ttl {
		for k, v := range vs.val {
			if now.Sub(v.lastSeen) > vs.ttl {
				delete(vs.val, k)
			}
		}
		vs.lastSweep = now
	}

	v, ok := vs.val[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(vs.limit, vs.burst)}
		vs.val[key] = v
	}
	v.lastSeen = now
	return v.limiter
}
