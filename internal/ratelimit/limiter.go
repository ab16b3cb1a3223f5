package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/monitoring"
)

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int // per-IP budget for every route
	RankingsPerMinute int // per-IP budget for ranking computations
	IdleTimeout       time.Duration
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 120,
		RankingsPerMinute: 30,
		IdleTimeout:       10 * time.Minute,
	}
}

// Rate is a request budget per period.
type Rate struct {
	Limit  int
	Period time.Duration
}

// PerMinute returns a Rate of n requests a minute.
func PerMinute(n int) Rate {
	return Rate{Limit: n, Period: time.Minute}
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests with redis_rate when Redis is available and
// falls back to per-key token buckets otherwise.
type RateLimiter struct {
	redisLimiter *redis_rate.Limiter
	redisClient  *RedisClient
	config       Config
	metrics      *monitoring.Metrics
	now          func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a limiter; metrics may be nil.
func NewRateLimiter(redisClient *RedisClient, config Config, metrics *monitoring.Metrics) *RateLimiter {
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultConfig().IdleTimeout
	}

	rl := &RateLimiter{
		redisClient: redisClient,
		config:      config,
		metrics:     metrics,
		now:         time.Now,
		buckets:     make(map[string]*bucket),
		stop:        make(chan struct{}),
	}

	if redisClient.IsEnabled() {
		rl.redisLimiter = redis_rate.NewLimiter(redisClient.client)
	}

	go rl.cleanupLoop()

	return rl
}

// AllowIP applies the global per-IP budget.
func (rl *RateLimiter) AllowIP(ctx context.Context, ip string) (*Result, error) {
	return rl.Allow(ctx, "ratelimit:ip:"+ip, PerMinute(rl.config.RequestsPerMinute))
}

// Allow checks key against r, using Redis when enabled and the in-memory
// bucket when Redis is disabled or failing.
func (rl *RateLimiter) Allow(ctx context.Context, key string, r Rate) (*Result, error) {
	if r.Limit <= 0 {
		return &Result{Allowed: true}, nil
	}

	if rl.redisLimiter != nil {
		result, err := rl.allowRedis(ctx, key, r)
		if err == nil {
			return result, nil
		}
		slog.Warn("Redis rate limit check failed, using fallback", "key", key, "error", err)
		if rl.metrics != nil {
			rl.metrics.IncrementRateLimitRedisError()
		}
	}

	if rl.metrics != nil {
		rl.metrics.IncrementRateLimitFallback()
	}
	return rl.allowFallback(key, r), nil
}

func (rl *RateLimiter) allowRedis(ctx context.Context, key string, r Rate) (*Result, error) {
	res, err := rl.redisLimiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   r.Limit,
		Burst:  r.Limit,
		Period: r.Period,
	})
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Limit:      res.Limit.Rate,
		Remaining:  res.Remaining,
		ResetAt:    rl.now().Add(res.ResetAfter),
		RetryAfter: max(res.RetryAfter, 0),
	}, nil
}

// allowFallback refills r.Limit tokens per period with a burst of r.Limit.
func (rl *RateLimiter) allowFallback(key string, r Rate) *Result {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(float64(r.Limit)/r.Period.Seconds()), r.Limit)}
		rl.buckets[key] = b
	}
	b.lastSeen = now

	perToken := time.Duration(float64(r.Period) / float64(r.Limit))
	allowed := b.limiter.AllowN(now, 1)
	tokens := b.limiter.TokensAt(now)

	result := &Result{
		Allowed:   allowed,
		Limit:     r.Limit,
		Remaining: max(int(tokens), 0),
		ResetAt:   now.Add(time.Duration((float64(r.Limit) - tokens) * float64(perToken))),
	}
	if !allowed {
		result.RetryAfter = time.Duration((1 - tokens) * float64(perToken))
	}
	return result
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.IdleTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			if n := rl.cleanup(); n > 0 {
				slog.Debug("Removed idle rate limit buckets", "count", n)
			}
		}
	}
}

func (rl *RateLimiter) cleanup() int {
	cutoff := rl.now().Add(-rl.config.IdleTimeout)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
			removed++
		}
	}
	return removed
}

// Config returns the limits the limiter was built with.
func (rl *RateLimiter) Config() Config {
	return rl.config
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.mu.Lock()
	buckets := len(rl.buckets)
	rl.mu.Unlock()

	return map[string]interface{}{
		"redis_enabled":       rl.redisLimiter != nil,
		"fallback_buckets":    buckets,
		"requests_per_minute": rl.config.RequestsPerMinute,
		"rankings_per_minute": rl.config.RankingsPerMinute,
		"redis_pool":          rl.redisClient.GetPoolStats(),
	}
}

// RedisStatus reports "disabled" without Redis, "ok" when it answers a ping
// and the ping error otherwise.
func (rl *RateLimiter) RedisStatus(ctx context.Context) string {
	if !rl.redisClient.IsEnabled() {
		return "disabled"
	}
	if err := rl.redisClient.HealthCheck(ctx); err != nil {
		return err.Error()
	}
	return "ok"
}

// Close stops the bucket cleanup loop.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}
