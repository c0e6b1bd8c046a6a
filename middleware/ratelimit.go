package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"quizdeck/pkg/response"
)

// RateLimit enforces a fixed window of max requests per client IP, counted in
// redis. With no redis client configured it is a pass-through, and a limiter
// backend failure fails open.
func RateLimit(rdb *redis.Client, window time.Duration, max int, log *logrus.Logger) gin.HandlerFunc {
	if rdb == nil || max <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := "ratelimit:" + c.ClientIP()

		n, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.WithError(err).Warn("rate limiter unavailable")
			c.Next()
			return
		}
		if n == 1 {
			if err := rdb.Expire(ctx, key, window).Err(); err != nil {
				log.WithError(err).Warn("failed to set rate limit window")
			}
		}
		if n > int64(max) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Envelope{
				Success: false,
				Error:   "too many requests",
			})
			return
		}
		c.Next()
	}
}
