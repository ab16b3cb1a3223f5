package ratelimit

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/errors"
)

// IPRateLimitMiddleware applies the global per-IP budget.
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return rl.middleware("", func(c *gin.Context) (string, Rate) {
		return "ratelimit:ip:" + c.ClientIP(), PerMinute(rl.config.RequestsPerMinute)
	})
}

// EndpointRateLimitMiddleware applies a separate per-IP budget to one route.
func (rl *RateLimiter) EndpointRateLimitMiddleware(endpoint string, perMinute int) gin.HandlerFunc {
	return rl.middleware("Endpoint-", func(c *gin.Context) (string, Rate) {
		return "ratelimit:endpoint:" + endpoint + ":" + c.ClientIP(), PerMinute(perMinute)
	})
}

func (rl *RateLimiter) middleware(headerPrefix string, keyFn func(*gin.Context) (string, Rate)) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, r := keyFn(c)

		result, err := rl.Allow(c.Request.Context(), key, r)
		if err != nil {
			slog.Error("Rate limit check failed", "key", key, "error", err)
			c.Next()
			return
		}
		if r.Limit <= 0 {
			c.Next()
			return
		}

		c.Header("X-RateLimit-"+headerPrefix+"Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-"+headerPrefix+"Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-"+headerPrefix+"Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitBlock()
			}

			retry := int(result.RetryAfter.Seconds() + 0.999)
			c.Header("Retry-After", strconv.Itoa(max(retry, 1)))

			appErr := errors.NewRateLimitError(result.RetryAfter)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.Response())
			return
		}

		c.Next()
	}
}
