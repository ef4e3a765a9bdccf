package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// tokenBucket is a simple refilling bucket.
type tokenBucket struct {
	tokens   float64
	lastFill time.Time
}

// RateLimit caps requests per client IP at rps, with a burst of the same
// size.  Buckets idle for ten minutes are dropped on the next sweep.
func RateLimit(rps int) gin.HandlerFunc {
	var (
		mu        sync.Mutex
		buckets   = map[string]*tokenBucket{}
		lastSweep = time.Now()
	)
	limit := float64(rps)

	return func(c *gin.Context) {
		now := time.Now()

		mu.Lock()
		if now.Sub(lastSweep) > time.Minute {
			for ip, b := range buckets {
				if now.Sub(b.lastFill) > 10*time.Minute {
					delete(buckets, ip)
				}
			}
			lastSweep = now
		}

		ip := c.ClientIP()
		b, ok := buckets[ip]
		if !ok {
			b = &tokenBucket{tokens: limit, lastFill: now}
			buckets[ip] = b
		}
		b.tokens += now.Sub(b.lastFill).Seconds() * limit
		if b.tokens > limit {
			b.tokens = limit
		}
		b.lastFill = now

		allowed := b.tokens >= 1
		if allowed {
			b.tokens--
		}
		mu.Unlock()

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   gin.H{"code": "COMMON_007", "message": "too many requests"},
			})
			return
		}
		c.Next()
	}
}
