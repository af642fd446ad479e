package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vidtube/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func limitedApp(handler fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return models.RespondWithError(c, err)
		},
	})
	app.Post("/login", handler, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestConsume_DisabledOutsideDeployments(t *testing.T) {
	l := Limit{Name: "login", Max: 1, Window: time.Minute}
	for _, env := range []string{"", "test", "development", "stress"} {
		t.Run("env="+env, func(t *testing.T) {
			t.Setenv("APP_ENV", env)
			u, err := l.Consume(context.Background(), nil, "ip:1.2.3.4")
			require.NoError(t, err)
			assert.True(t, u.Allowed)
		})
	}
}

func TestConsume_NeedsStore(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	_, err := Limit{Name: "login", Max: 1, Window: time.Minute}.Consume(context.Background(), nil, "ip:1.2.3.4")
	assert.ErrorIs(t, err, errNoLimiterStore)
}

func TestConsume_FixedWindow(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	mr, rdb := newMiniRedis(t)
	ctx := context.Background()
	l := Limit{Name: "login", Max: 3, Window: time.Minute}

	for i := int64(1); i <= 3; i++ {
		u, err := l.Consume(ctx, rdb, "ip:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, u.Allowed)
		assert.Equal(t, 3-i, u.Remaining)
	}
	u, err := l.Consume(ctx, rdb, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, u.Allowed)
	assert.Positive(t, u.RetryAfter)
	assert.Equal(t, time.Minute, mr.TTL("rl:login:ip:1.2.3.4"))

	other, err := l.Consume(ctx, rdb, "ip:5.6.7.8")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "callers have separate windows")

	mr.FastForward(2 * time.Minute)
	u, err = l.Consume(ctx, rdb, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, u.Allowed)
}

func TestRateLimit_Headers(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	_, rdb := newMiniRedis(t)
	app := limitedApp(RateLimit(rdb, Limit{Name: "login", Max: 2, Window: time.Minute}))

	var last *http.Response
	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
		last = resp
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
	assert.Equal(t, "2", last.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", last.Header.Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", last.Header.Get("Retry-After"))
}

func TestRateLimit_StoreDown(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })

	open := limitedApp(RateLimit(rdb, Limit{Name: "open", Max: 1, Window: time.Minute}))
	resp, err := open.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	closed := limitedApp(RateLimit(rdb, Limit{Name: "closed", Max: 1, Window: time.Minute, FailClosed: true}))
	resp, err = closed.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
