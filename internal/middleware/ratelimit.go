package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/openems/bed-allocation/internal/config"
)

// RateLimit is a fixed-window per-IP limiter backed by Redis INCR.
// The window key is derived from the client IP, the route and the
// current window number; the first hit sets the expiry.  With a nil
// Redis client or Enabled=false it is a pass-through, and Redis
// errors fail open so a limiter outage cannot take down dispatch.
func RateLimit(rdb *redis.Client, cfg config.RateLimitConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rdb == nil || !cfg.Enabled {
				return next(c)
			}

			window := time.Now().Unix() / int64(cfg.Window.Seconds())
			key := fmt.Sprintf("%s:%s:%s:%d", cfg.Prefix, c.RealIP(), c.Path(), window)

			ctx, cancel := context.WithTimeout(c.Request().Context(), 200*time.Millisecond)
			defer cancel()

			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				return next(c)
			}
			if n == 1 {
				rdb.Expire(ctx, key, cfg.Window)
			}
			if n > int64(cfg.Limit) {
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error": "rate limit exceeded, try again shortly",
				})
			}
			return next(c)
		}
	}
}
