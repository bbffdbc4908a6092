package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limitMsg   = "Too many requests from this IP, please try again later."
	maxBuckets = 10000
	bucketIdle = 15 * time.Minute
)

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimitPerIP keeps one token bucket per client IP. Idle buckets are
// dropped once the table grows past maxBuckets.
func RateLimitPerIP(rps rate.Limit, burst int) gin.HandlerFunc {
	var mu sync.Mutex
	buckets := make(map[string]*bucket)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		b, ok := buckets[ip]
		if !ok {
			if len(buckets) >= maxBuckets {
				for k, v := range buckets {
					if now.Sub(v.seen) > bucketIdle {
						delete(buckets, k)
					}
				}
			}
			b = &bucket{lim: rate.NewLimiter(rps, burst)}
			buckets[ip] = b
		}
		b.seen = now
		allowed := b.lim.Allow()
		mu.Unlock()

		if allowed {
			c.Next()
			return
		}
		c.Header("Retry-After", "60")
		abort(c, http.StatusTooManyRequests, limitMsg)
	}
}
