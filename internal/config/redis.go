package config

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the shared Redis client used by the seat cache,
// the rate limiter and the distributed lock backend.
type RedisConfig struct {
	Addr     string
	Host     string
	Port     string `default:"6379"`
	Password string
	DB       int
	TLS      bool
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool { return r.Addr != "" || r.Host != "" }

// Address prefers REDIS_HOST/REDIS_PORT over REDIS_ADDR.
func (r RedisConfig) Address() string {
	if r.Host != "" {
		return r.Host + ":" + r.Port
	}
	return r.Addr
}

// NewRedisClient connects and pings Redis. It returns nil when Redis is not
// configured or unreachable; callers then run without the Redis features.
func NewRedisClient(ctx context.Context, cfg RedisConfig) *redis.Client {
	if !cfg.Enabled() {
		return nil
	}
	opts := &redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
