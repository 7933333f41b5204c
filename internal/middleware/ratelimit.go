package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/joshua-takyi/studenthub/internal/helpers"
)

// RateLimiter counts requests per route and client IP in fixed Redis windows.
type RateLimiter struct {
	rdb    redis.Cmdable
	limit  int
	window time.Duration
	logger *slog.Logger
}

// NewRateLimiter returns a limiter. A nil client disables limiting.
func NewRateLimiter(rdb redis.Cmdable, limit int, window time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{rdb: rdb, limit: limit, window: window, logger: logger}
}

// Limit guards one route. Redis errors let the request through.
func (rl *RateLimiter) Limit(route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || rl.rdb == nil || rl.limit <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("ratelimit:%s:%s", route, c.ClientIP())

		count, err := rl.rdb.Incr(ctx, key).Result()
		if err == nil && count == 1 {
			err = rl.rdb.Expire(ctx, key, rl.window).Err()
		}
		if err != nil {
			rl.logger.WarnContext(ctx, "rate limiter unavailable", "route", route, "error", err)
			c.Next()
			return
		}

		remaining := int64(rl.limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(rl.limit) {
			if ttl, err := rl.rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
				c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())+1))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, helpers.ErrorResponse("Too many requests. Try again later."))
			return
		}
		c.Next()
	}
}
