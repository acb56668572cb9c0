package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/apierror"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/infra"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RateLimitConfig describes one fixed-window limiter.
type RateLimitConfig struct {
	Nombre  string // key prefix and metrics label, e.g. "api" or "login"
	Limite  int
	Ventana time.Duration
	Mensaje string
}

// contador counts hits per key inside the current window and returns the
// count plus the time left until the window resets.
type contador interface {
	incr(ctx context.Context, key string, ventana time.Duration) (int64, time.Duration, error)
}

// RateLimiter limits requests per client IP. With a Redis client the counters
// are shared by every replica; with nil they live in process memory. When Redis
// fails, a circuit breaker switches the limiter to process memory until Redis
// answers again.
func RateLimiter(rdb redis.UniversalClient, cfg RateLimitConfig, metrics *observability.Metrics) gin.HandlerFunc {
	var cnt contador = newMemContador()
	if rdb != nil {
		cnt = &redisContador{
			rdb:      rdb,
			breaker:  infra.NewCircuitBreaker(infra.CircuitBreakerConfig{Nombre: "redis-ratelimit-" + cfg.Nombre, FailureThreshold: 3}),
			respaldo: newMemContador(),
		}
	}
	if cfg.Mensaje == "" {
		cfg.Mensaje = "Demasiadas solicitudes. Intente nuevamente en un momento."
	}

	return func(c *gin.Context) {
		if cfg.Limite <= 0 {
			c.Next()
			return
		}
		key := fmt.Sprintf("ratelimit:%s:%s", cfg.Nombre, c.ClientIP())
		n, restante, err := cnt.incr(c.Request.Context(), key, cfg.Ventana)
		if err != nil {
			log.Warn().Err(err).Str("limiter", cfg.Nombre).Msg("rate limiter no disponible, se permite la solicitud")
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limite))
		if n > int64(cfg.Limite) {
			metrics.ObservarRateLimit(cfg.Nombre)
			c.Header("Retry-After", strconv.Itoa(int((restante+time.Second-1)/time.Second)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(cfg.Mensaje))
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(int64(cfg.Limite)-n, 10))
		c.Next()
	}
}

// ── Redis counter ─────────────────────────────────────────────────────────────

type redisContador struct {
	rdb      redis.UniversalClient
	breaker  *infra.CircuitBreaker
	respaldo *memContador
}

func (r *redisContador) incr(ctx context.Context, key string, ventana time.Duration) (int64, time.Duration, error) {
	var n int64
	var restante time.Duration
	err := r.breaker.Execute(func() error {
		var err error
		n, restante, err = r.incrRedis(ctx, key, ventana)
		return err
	})
	if err != nil {
		if !errors.Is(err, infra.ErrCircuitOpen) {
			log.Warn().Err(err).Str("key", key).Msg("redis no disponible para rate limiting, usando memoria")
		}
		return r.respaldo.incr(ctx, key, ventana)
	}
	return n, restante, nil
}

func (r *redisContador) incrRedis(ctx context.Context, key string, ventana time.Duration) (int64, time.Duration, error) {
	n, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if n == 1 {
		if err := r.rdb.Expire(ctx, key, ventana).Err(); err != nil {
			return 0, 0, err
		}
		return n, ventana, nil
	}
	ttl, err := r.rdb.PTTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		// key lost its expiry (e.g. crash between INCR and EXPIRE)
		if err := r.rdb.Expire(ctx, key, ventana).Err(); err != nil {
			return 0, 0, err
		}
		ttl = ventana
	}
	return n, ttl, nil
}

// ── In-memory counter ─────────────────────────────────────────────────────────

const purgeInterval = 5 * time.Minute

type ventanaEntry struct {
	count     int64
	windowEnd time.Time
}

type memContador struct {
	mu        sync.Mutex
	entries   map[string]*ventanaEntry
	lastPurge time.Time
	ahora     func() time.Time
}

func newMemContador() *memContador {
	return &memContador{entries: make(map[string]*ventanaEntry), ahora: time.Now}
}

func (m *memContador) incr(_ context.Context, key string, ventana time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.ahora()
	if now.Sub(m.lastPurge) > purgeInterval {
		m.purgar(now)
	}

	entry, ok := m.entries[key]
	if !ok || now.After(entry.windowEnd) {
		entry = &ventanaEntry{windowEnd: now.Add(ventana)}
		m.entries[key] = entry
	}
	entry.count++
	return entry.count, entry.windowEnd.Sub(now), nil
}

// purgar drops expired windows so IPs that never return do not accumulate.
func (m *memContador) purgar(now time.Time) {
	purged := 0
	for k, e := range m.entries {
		if now.After(e.windowEnd) {
			delete(m.entries, k)
			purged++
		}
	}
	m.lastPurge = now
	if purged > 0 {
		log.Debug().Int("purged", purged).Int("remaining", len(m.entries)).Msg("rate limiter purgado")
	}
}
