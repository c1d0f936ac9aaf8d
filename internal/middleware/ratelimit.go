package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to rate-limited routes when Redis is down.
type FailPolicy int

const (
	// FailOpen lets requests through when the limiter store is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed rejects with 503 instead. Reserved for abuse-sensitive
	// routes where unlimited traffic is worse than downtime.
	FailClosed
)

var errNoLimiterStore = errors.New("redis client is nil")

// CheckRateLimit counts a hit against the resource's fixed window and reports
// whether it is still under limit. Limiting is skipped entirely in test and
// development so local workflows are never throttled.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	switch env := os.Getenv("APP_ENV"); env {
	case "test", "development", "":
		return true, nil
	}

	if rdb == nil {
		return false, errNoLimiterStore
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)
	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		RedisErrors.WithLabelValues("ratelimit").Inc()
		return false, err
	}
	if count == 1 {
		rdb.Expire(ctx, key, window)
	}
	return count <= int64(limit), nil
}

// RateLimit enforces limit requests per window, keyed by authenticated user
// when available, falling back to client IP. The optional name overrides the
// request path as the counter's resource label so several routes can share
// one budget. Fails open on Redis errors.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy is RateLimit with an explicit failure policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := "ip:" + c.IP()
		if uid := c.Locals("userID"); uid != nil {
			id = fmt.Sprintf("user:%v", uid)
		}

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		allowed, err := CheckRateLimit(context.Background(), rdb, resource, id, limit, window)
		switch {
		case err != nil && policy == FailClosed:
			log.Printf("WARNING: Rate limit fail-closed for route %s (resource: %s): %v", c.Path(), resource, err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "rate limit unavailable",
			})
		case err != nil:
			return c.Next()
		case !allowed:
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
