package middleware

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"vidtube/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Limit is a fixed-window request budget for one named route.
type Limit struct {
	Name   string
	Max    int
	Window time.Duration
	// FailClosed answers 503 when Redis cannot be reached. The default lets
	// the request through.
	FailClosed bool
}

// Usage is the state of a caller's window after one request.
type Usage struct {
	Count      int64
	Remaining  int64
	RetryAfter time.Duration
	Allowed    bool
}

var errNoLimiterStore = errors.New("rate limit store not configured")

// incrWindow bumps the counter and starts the window on the first hit, in one
// round trip. Returns {count, pttl}.
var incrWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

func limitsDisabled() bool {
	switch os.Getenv("APP_ENV") {
	case "", "development", "test", "stress":
		return true
	}
	return false
}

// Consume records one request by caller against l.
func (l Limit) Consume(ctx context.Context, rdb *redis.Client, caller string) (Usage, error) {
	if limitsDisabled() {
		return Usage{Allowed: true, Remaining: int64(l.Max)}, nil
	}
	if rdb == nil {
		return Usage{}, errNoLimiterStore
	}

	res, err := incrWindow.Run(ctx, rdb, []string{"rl:" + l.Name + ":" + caller}, l.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Usage{}, err
	}
	count, pttl := res[0], res[1]
	u := Usage{Count: count, Allowed: count <= int64(l.Max)}
	u.Remaining = max(int64(l.Max)-count, 0)
	if !u.Allowed && pttl > 0 {
		u.RetryAfter = time.Duration(pttl) * time.Millisecond
	}
	return u, nil
}

// RateLimit enforces l per caller. Callers are keyed by user id when an
// auth guard ran before it and by IP otherwise.
func RateLimit(rdb *redis.Client, l Limit) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := "ip:" + c.IP()
		if uid := CurrentUserID(c); uid != 0 {
			caller = "user:" + strconv.FormatUint(uint64(uid), 10)
		}

		u, err := l.Consume(c.UserContext(), rdb, caller)
		if err != nil {
			if l.FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable",
					slog.String("limit", l.Name), slog.String("error", err.Error()))
				return models.NewUnavailableError("Rate limit unavailable")
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(l.Max))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(u.Remaining, 10))
		if !u.Allowed {
			secs := int64((u.RetryAfter + time.Second - 1) / time.Second)
			c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(max(secs, 1), 10))
			return models.NewRateLimitedError()
		}
		return c.Next()
	}
}
