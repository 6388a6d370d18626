package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/yourusername/exam-api/internal/domain/repository"
)

// RateLimitConfig содержит настройки rate limiting
type RateLimitConfig struct {
	// MaxRequests: максимальное количество запросов за Window
	MaxRequests int
	// Window: временное окно для подсчёта запросов
	Window time.Duration
	// KeyPrefix: префикс для ключей в Redis
	KeyPrefix string
}

// AttemptRateLimitConfig: лимит на старт попыток и предпросмотр выборки
func AttemptRateLimitConfig(perMinute int) RateLimitConfig {
	if perMinute <= 0 {
		perMinute = 10
	}
	return RateLimitConfig{
		MaxRequests: perMinute,
		Window:      time.Minute,
		KeyPrefix:   "rl:selection",
	}
}

// RateLimiter ограничивает частоту запросов по пользователю (или IP) через счётчики в Redis.
// Если Redis недоступен, работает локальный token bucket на том же лимите.
type RateLimiter struct {
	cache  repository.CacheRepository
	logger zerolog.Logger

	mu        sync.Mutex
	fallback  map[string]*localLimiter
	lastSweep time.Time
	now       func() time.Time
}

// localLimiter: token bucket ключа и время последнего обращения к нему
type localLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter создает новый RateLimiter
func NewRateLimiter(cache repository.CacheRepository) *RateLimiter {
	return &RateLimiter{
		cache:    cache,
		logger:   log.With().Str("component", "rate_limiter").Logger(),
		fallback: make(map[string]*localLimiter),
		now:      time.Now,
	}
}

// Limit возвращает Gin middleware с заданной конфигурацией.
// Ключ формируется из ID пользователя (или IP) и маршрута.
func (rl *RateLimiter) Limit(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		key := fmt.Sprintf("%s:%s:%s", cfg.KeyPrefix, clientKey(c), path)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := rl.cache.Increment(ctx, key)
		if err != nil {
			rl.logger.Warn().Err(err).Str("key", key).Msg("Redis unavailable, using local limiter")
			if !rl.allowLocal(key, cfg) {
				rejectRateLimited(c, cfg, int(cfg.Window.Seconds()))
				return
			}
			c.Next()
			return
		}

		// Первый запрос в окне — устанавливаем TTL
		if count == 1 {
			if err := rl.cache.Expire(ctx, key, cfg.Window); err != nil {
				rl.logger.Warn().Err(err).Str("key", key).Msg("Failed to set rate limit TTL")
			}
		}

		remaining := cfg.MaxRequests - int(count)
		if remaining < 0 {
			remaining = 0
		}

		retryAfter := int(cfg.Window.Seconds())
		if ttl, err := rl.cache.TTL(ctx, key); err == nil && ttl > 0 {
			retryAfter = int(ttl.Seconds())
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", retryAfter))

		if int(count) > cfg.MaxRequests {
			rl.logger.Info().
				Str("client", clientKey(c)).
				Str("path", path).
				Int64("count", count).
				Int("limit", cfg.MaxRequests).
				Msg("Rate limit exceeded")
			rejectRateLimited(c, cfg, retryAfter)
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allowLocal(key string, cfg RateLimitConfig) bool {
	now := rl.now()

	rl.mu.Lock()
	rl.sweepLocked(now, cfg.Window)
	entry, ok := rl.fallback[key]
	if !ok {
		every := cfg.Window / time.Duration(max(cfg.MaxRequests, 1))
		entry = &localLimiter{limiter: rate.NewLimiter(rate.Every(every), cfg.MaxRequests)}
		rl.fallback[key] = entry
	}
	entry.lastSeen = now
	rl.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// sweepLocked раз в окно удаляет ключи, не использованные дольше окна.
// К этому моменту их bucket снова полон, так что удаление не меняет лимит.
func (rl *RateLimiter) sweepLocked(now time.Time, window time.Duration) {
	if now.Sub(rl.lastSweep) < window {
		return
	}
	rl.lastSweep = now
	for key, entry := range rl.fallback {
		if now.Sub(entry.lastSeen) >= window {
			delete(rl.fallback, key)
		}
	}
}

func rejectRateLimited(c *gin.Context, cfg RateLimitConfig, retryAfter int) {
	c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       "Too many requests. Please try again later.",
		"error_type":  "rate_limited",
		"retry_after": retryAfter,
	})
}

// clientKey: пользователь из RequireRequester, иначе IP
func clientKey(c *gin.Context) string {
	if id, ok := c.Get(RequesterIDKey); ok {
		return fmt.Sprintf("user:%v", id)
	}
	return "ip:" + c.ClientIP()
}
