package redis

import (
	"context"
	"fmt"
	"time"

	"multisig-registry/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const healthKey = "msr:health"

// NewClient connects to redis and verifies connectivity. Challenges,
// idempotency entries, rate limit windows and event fan-out share the
// connection, each under its own msr: key prefix.
func NewClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	log.Info().
		Str("addr", cfg.Addr()).
		Int("db", cfg.DB).
		Msg("Redis connection established")

	return client, nil
}

// HealthCheck implements ports.HealthChecker. Every redis-backed feature
// writes, so a reachable but read-only server (a replica after failover)
// counts as unhealthy.
type HealthCheck struct {
	client *goredis.Client
	now    func() time.Time
}

func NewHealthCheck(client *goredis.Client) *HealthCheck {
	return &HealthCheck{client: client, now: time.Now}
}

func (h *HealthCheck) Name() string {
	return "redis"
}

func (h *HealthCheck) Ping(ctx context.Context) error {
	if err := h.client.Set(ctx, healthKey, h.now().Unix(), time.Minute).Err(); err != nil {
		return fmt.Errorf("redis write probe: %w", err)
	}
	return nil
}
