package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/humanizapp/humanizapp/backend/go-services/pkg/logger"
	"github.com/humanizapp/humanizapp/backend/go-services/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimitMiddleware is a fixed-window limiter shared by every API
// replica. Each window allows floor(rps*window)+burst requests per key.
// While Redis is unreachable requests are limited per process instead.
func RedisRateLimitMiddleware(client *redis.Client, rps float64, burst int, window time.Duration) gin.HandlerFunc {
	local := RateLimitMiddleware(rps, burst)
	if client == nil {
		return local
	}
	win := int64(window / time.Second)
	if win <= 0 {
		win = 1
	}
	allowed := int64(rps*float64(win)) + int64(burst)
	ttl := time.Duration(win+1) * time.Second

	return func(c *gin.Context) {
		now := time.Now().Unix()
		key := fmt.Sprintf("rl:%s:%d", limitKey(c), now/win)

		ctx := c.Request.Context()
		pipe := client.TxPipeline()
		count := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			logger.Warnf("redis rate limit unavailable, limiting locally: %v", err)
			local(c)
			return
		}
		if count.Val() > allowed {
			c.Header("Retry-After", strconv.FormatInt(win-now%win, 10))
			metrics.RateLimitRejected.WithLabelValues("redis").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}
