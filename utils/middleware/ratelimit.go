package middleware

import (
	"fmt"
	"time"

	"github.com/acadfolio/portfolio-api/utils/cache"
	"github.com/acadfolio/portfolio-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// RateLimiter is a fixed-window per-IP request limiter backed by redis, so
// the count survives restarts and is shared across replicas. A redis outage
// fails open: blocking all traffic because the counter store is down would be
// worse than briefly not limiting it.
type RateLimiter struct {
	redisCache *cache.RedisCache
	limit      int64
	window     time.Duration
	excluded   map[string]bool
}

// NewRateLimiter creates a limiter allowing limit requests per window per
// client IP. Paths in exclude are never limited.
func NewRateLimiter(redisCache *cache.RedisCache, limit int, window time.Duration, exclude []string) *RateLimiter {
	excluded := make(map[string]bool, len(exclude))
	for _, p := range exclude {
		excluded[p] = true
	}
	return &RateLimiter{
		redisCache: redisCache,
		limit:      int64(limit),
		window:     window,
		excluded:   excluded,
	}
}

// Handler returns the fiber middleware.
func (r *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if r.excluded[c.Path()] {
			return c.Next()
		}

		ctx := c.Context()
		key := fmt.Sprintf("ratelimit:%s", c.IP())

		count, err := r.redisCache.IncrementWindow(ctx, key, r.window)
		if err != nil {
			return c.Next()
		}

		ttl, err := r.redisCache.TTL(ctx, key)
		if err != nil || ttl < 0 {
			ttl = r.window
		}

		c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", r.limit))

		if count > r.limit {
			retryAfter := int(ttl.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.Set("X-RateLimit-Remaining", "0")
			c.Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(ttl).Unix()))
			return response.TooManyRequests(c,
				fmt.Sprintf("Rate limit of %d requests per %d seconds reached", r.limit, int(r.window.Seconds())))
		}

		c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", r.limit-count))
		c.Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(ttl).Unix()))

		return c.Next()
	}
}
