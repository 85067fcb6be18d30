package security

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles purchase-path endpoints with a fixed window
// counter in Redis, keyed by user when authenticated and by client IP
// otherwise.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
	}
}

// Middleware returns a route middleware enforcing the limit.
func (r *RateLimiter) Middleware(scope string) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		identity := e.RealIP()
		if e.Auth != nil {
			identity = fmt.Sprintf("user:%s", e.Auth.Id)
		}

		if !r.allow(e.Request.Context(), scope, identity) {
			return apis.NewApiError(http.StatusTooManyRequests, "Too many requests", nil)
		}

		return e.Next()
	}
}

// allow increments the fixed window counter for identity and reports
// whether the request is within the limit.
func (r *RateLimiter) allow(ctx context.Context, scope, identity string) bool {
	key := fmt.Sprintf("ratelimit:%s:%s", scope, identity)

	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		// Redis being down shouldn't take checkout down with it.
		return true
	}
	if count == 1 {
		r.redis.Expire(ctx, key, r.window)
	}

	return count <= int64(r.limit)
}
