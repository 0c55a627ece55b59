package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	tokenKeyPrefix = "fcm:"
	tokenTTL       = 60 * 24 * time.Hour
)

// ErrNoToken is returned when a user never registered a device.
var ErrNoToken = errors.New("no FCM token registered")

// RedisTokenStore keeps tokens under fcm:<userID>, refreshed on every registration.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) SetToken(ctx context.Context, userID, token string) error {
	if err := s.client.Set(ctx, tokenKeyPrefix+userID, token, tokenTTL).Err(); err != nil {
		return fmt.Errorf("failed to store FCM token for %s: %w", userID, err)
	}
	return nil
}

func (s *RedisTokenStore) GetToken(ctx context.Context, userID string) (string, error) {
	token, err := s.client.Get(ctx, tokenKeyPrefix+userID).Result()
	if err == redis.Nil {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to read FCM token for %s: %w", userID, err)
	}
	return token, nil
}

// MemoryTokenStore is used when the process runs without Redis.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]string)}
}

func (s *MemoryTokenStore) SetToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID] = token
	return nil
}

func (s *MemoryTokenStore) GetToken(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[userID]
	if !ok {
		return "", ErrNoToken
	}
	return token, nil
}
