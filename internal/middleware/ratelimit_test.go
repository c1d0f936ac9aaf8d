package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRateLimitRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestCheckRateLimit_EnvironmentBypass(t *testing.T) {
	for _, env := range []string{"test", "development"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv("APP_ENV", env)
			allowed, err := CheckRateLimit(context.Background(), nil, "signup", "ip:1.2.3.4", 1, time.Minute)
			assert.NoError(t, err)
			assert.True(t, allowed)
		})
	}
}

func TestCheckRateLimit_NilRedisErrors(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	allowed, err := CheckRateLimit(context.Background(), nil, "signup", "ip:1.2.3.4", 1, time.Minute)
	assert.Error(t, err)
	assert.False(t, allowed)
}

func TestCheckRateLimit_CountsAgainstLimit(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	rdb := newRateLimitRedis(t)

	for i := 0; i < 3; i++ {
		allowed, err := CheckRateLimit(context.Background(), rdb, "login", "user:7", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be under the limit", i+1)
	}

	allowed, err := CheckRateLimit(context.Background(), rdb, "login", "user:7", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// A different identity keeps its own counter.
	allowed, err = CheckRateLimit(context.Background(), rdb, "login", "user:8", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitMiddleware(t *testing.T) {
	request := func(app *fiber.App) int {
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	t.Run("Bypassed in test env", func(t *testing.T) {
		t.Setenv("APP_ENV", "test")
		app := fiber.New()
		app.Get("/limited", RateLimit(nil, 1, time.Minute), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})

		assert.Equal(t, http.StatusOK, request(app))
		assert.Equal(t, http.StatusOK, request(app))
	})

	t.Run("Returns 429 over the limit", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		app := fiber.New()
		app.Get("/limited", RateLimit(newRateLimitRedis(t), 2, time.Minute, "limited"), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})

		assert.Equal(t, http.StatusOK, request(app))
		assert.Equal(t, http.StatusOK, request(app))
		assert.Equal(t, http.StatusTooManyRequests, request(app))
	})

	t.Run("FailOpen with nil redis", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		app := fiber.New()
		app.Get("/limited", RateLimit(nil, 1, time.Minute), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})

		assert.Equal(t, http.StatusOK, request(app))
	})

	t.Run("FailClosed with nil redis", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		app := fiber.New()
		app.Get("/limited", RateLimitWithPolicy(nil, 1, time.Minute, FailClosed), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})

		assert.Equal(t, http.StatusServiceUnavailable, request(app))
	})
}
