package cache

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// Module provides the Redis cache as a mono module. Redis is an
// optimization here, not a dependency: if the connection fails at startup
// the module logs a warning and GetCache returns nil, leaving the store on
// DB-only reads.
type Module struct {
	cache     *Cache
	client    *redis.Client
	redisAddr string
	prefix    string
	ttl       time.Duration
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new cache module.
func NewModule() *Module {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	return &Module{
		redisAddr: redisAddr,
		prefix:    "chat:",
		ttl:       5 * time.Minute,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "cache"
}

// Start connects to Redis. Connection failure disables caching instead of
// failing the application.
func (m *Module) Start(_ context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:         m.redisAddr,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[cache] Redis unavailable at %s, caching disabled: %v", m.redisAddr, err)
		_ = client.Close()
		return nil
	}

	m.client = client
	m.cache = New(client, m.prefix, m.ttl)
	log.Printf("[cache] Connected to Redis at %s (prefix: %s, TTL: %s)", m.redisAddr, m.prefix, m.ttl)
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			log.Printf("[cache] Error closing Redis connection: %v", err)
		}
	}
	log.Println("[cache] Module stopped")
	return nil
}

// Health reports cache statistics, or disabled state.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.client == nil {
		return mono.HealthStatus{
			Healthy: true,
			Message: "caching disabled",
		}
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "redis ping failed: " + err.Error(),
		}
	}
	snapshot := m.cache.Snapshot()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"hits":     snapshot.Hits,
			"misses":   snapshot.Misses,
			"hit_rate": snapshot.HitRate,
		},
	}
}

// GetCache returns the cache instance, or nil when caching is disabled.
func (m *Module) GetCache() *Cache {
	return m.cache
}
