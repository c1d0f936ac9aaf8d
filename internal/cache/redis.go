// Package cache provides Redis caching utilities for the application.
package cache

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"ripple/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// client is nil when Redis is unreachable. Every helper in this package
// treats a nil client as a cache miss, so the API keeps working without it.
var client *redis.Client

const pingTimeout = 5 * time.Second

// InitRedis connects to Redis at addr, which is either a bare host:port or a
// redis:// URL. Connection failures are logged and leave the cache disabled
// rather than aborting startup.
func InitRedis(addr string) {
	opts, err := parseRedisAddr(addr)
	if err != nil {
		log.Printf("Redis disabled: invalid REDIS_URL %q: %v", addr, err)
		client = nil
		return
	}

	c := redis.NewClient(opts)
	c.AddHook(errorCountingHook{})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		log.Printf("Redis disabled: %v", err)
		_ = c.Close()
		client = nil
		return
	}

	client = c
	log.Println("Redis connected successfully")
}

func parseRedisAddr(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		return redis.ParseURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}

// GetClient returns the current Redis client, or nil when the cache is off.
func GetClient() *redis.Client {
	return client
}

// SetClient swaps the active client and returns the previous one. Tests use
// it to point the cache at a throwaway server and restore it afterwards.
func SetClient(c *redis.Client) *redis.Client {
	prev := client
	client = c
	return prev
}

// errorCountingHook feeds command failures into the redis_errors_total metric
// so cache degradation shows up on dashboards before users report it.
type errorCountingHook struct{}

func (errorCountingHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (errorCountingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (errorCountingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}
