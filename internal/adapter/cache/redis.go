package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/seu-repo/voicebridge/internal/ports"
)

// RedisStore backs the conversation/pending-confirmation store with
// Redis so confirmations survive a bridge restart and can be shared
// across replicas.
type RedisStore struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisStore(url string, log *zap.Logger) (ports.Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Ping to verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Successfully connected to Redis")
	return &RedisStore{
		client: client,
		log:    log,
	}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

// GetDel claims an entry atomically via the Redis GETDEL command, so
// concurrent claimers on the same key cannot both see the value.
func (s *RedisStore) GetDel(ctx context.Context, key string) (string, error) {
	return s.client.GetDel(ctx, key).Result()
}

func (s *RedisStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return s.client.Set(ctx, key, value, expiration).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *RedisStore) Ping() error {
	return s.client.Ping(context.Background()).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
