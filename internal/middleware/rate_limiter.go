package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"salescatalog/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const purgeInterval = 5 * time.Minute

// rateEntry tracks request counts per IP within a fixed window.
type rateEntry struct {
	count     int
	windowEnd time.Time
}

// RateLimiter is a per-IP limiter. With UseRedis the counters live in Redis
// (GCRA via redis_rate) and are shared by every replica; otherwise each
// instance keeps a fixed-window map of its own.
type RateLimiter struct {
	limit  int
	window time.Duration
	shared *redis_rate.Limiter

	mu      sync.Mutex
	entries map[string]*rateEntry
	now     func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		entries: make(map[string]*rateEntry),
		now:     time.Now,
	}
}

// UseRedis moves the counters to Redis. A nil client keeps them in memory.
func (rl *RateLimiter) UseRedis(rdb *redis.Client) {
	if rdb == nil {
		return
	}
	rl.shared = redis_rate.NewLimiter(rdb)
}

// Handler rejects requests over the limit with 429. A limit below 1 disables it.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit < 1 {
			c.Next()
			return
		}
		allowed, retryAfter := rl.check(c.Request.Context(), c.ClientIP())
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Too many requests. Try again shortly."))
			return
		}
		c.Next()
	}
}

// check asks Redis first when configured. A Redis error falls back to the
// local window so an outage never turns into rejected traffic.
func (rl *RateLimiter) check(ctx context.Context, ip string) (bool, time.Duration) {
	if rl.shared != nil {
		res, err := rl.shared.Allow(ctx, "ratelimit:"+ip, redis_rate.Limit{
			Rate:   rl.limit,
			Burst:  rl.limit,
			Period: rl.window,
		})
		if err == nil {
			return res.Allowed > 0, res.RetryAfter
		}
		log.Warn().Err(err).Msg("rate limiter: redis unavailable, using local window")
	}
	return rl.allow(ip)
}

func (rl *RateLimiter) allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	e, ok := rl.entries[ip]
	if !ok || now.After(e.windowEnd) {
		e = &rateEntry{windowEnd: now.Add(rl.window)}
		rl.entries[ip] = e
	}
	e.count++
	if e.count > rl.limit {
		return false, e.windowEnd.Sub(now)
	}
	return true, 0
}

// StartPurge removes expired entries every few minutes until ctx is done.
func (rl *RateLimiter) StartPurge(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.purge()
			}
		}
	}()
}

func (rl *RateLimiter) purge() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	purged := 0
	for ip, e := range rl.entries {
		if now.After(e.windowEnd) {
			delete(rl.entries, ip)
			purged++
		}
	}
	if purged > 0 {
		log.Debug().
			Int("entries_purged", purged).
			Int("entries_remaining", len(rl.entries)).
			Msg("rate limiter map purged")
	}
}
