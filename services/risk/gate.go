package risk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"glowbook/utils"

	"github.com/go-redis/redis/v8"
)

const alertKeyPrefix = "risk:alert:"

// AlertGate admits one alert per key until ttl elapses.
type AlertGate interface {
	Allow(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type RedisAlertGate struct {
	client *redis.Client
}

func NewRedisAlertGate(client *redis.Client) *RedisAlertGate {
	return &RedisAlertGate{client: client}
}

func (g *RedisAlertGate) Allow(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, alertKeyPrefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("alert gate %s: %w", key, err)
	}
	return ok, nil
}

// MemoryAlertGate is the single-process gate.
type MemoryAlertGate struct {
	mu      sync.Mutex
	clock   utils.Clock
	expires map[string]time.Time
}

func NewMemoryAlertGate(clock utils.Clock) *MemoryAlertGate {
	return &MemoryAlertGate{clock: clock, expires: make(map[string]time.Time)}
}

func (g *MemoryAlertGate) Allow(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	if until, ok := g.expires[key]; ok && now.Before(until) {
		return false, nil
	}
	g.expires[key] = now.Add(ttl)
	for k, until := range g.expires {
		if !now.Before(until) {
			delete(g.expires, k)
		}
	}
	return true, nil
}
