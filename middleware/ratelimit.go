package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ipLimiter is a sliding-window per-IP rate limiter. Windows for idle IPs
// are dropped periodically, so the map stays bounded by active clients.
type ipLimiter struct {
	mu      sync.Mutex
	seen    map[string][]time.Time
	limit   int
	window  time.Duration
	lastGC  time.Time
	gcEvery time.Duration
}

func newIPLimiter(limit int, window time.Duration) *ipLimiter {
	return &ipLimiter{
		seen:    make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		lastGC:  time.Now(),
		gcEvery: 5 * time.Minute,
	}
}

func (rl *ipLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	if now.Sub(rl.lastGC) > rl.gcEvery {
		rl.gc(cutoff)
		rl.lastGC = now
	}

	hits := rl.seen[ip]
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	hits = hits[i:]

	if len(hits) >= rl.limit {
		rl.seen[ip] = hits
		return false
	}
	rl.seen[ip] = append(hits, now)
	return true
}

// gc drops IPs with no hits inside the window. Caller holds mu.
func (rl *ipLimiter) gc(cutoff time.Time) {
	for ip, hits := range rl.seen {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(rl.seen, ip)
		}
	}
}

var defaultLimiter = newIPLimiter(120, time.Minute)

func RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !defaultLimiter.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
