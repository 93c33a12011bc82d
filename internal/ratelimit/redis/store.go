package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quietpost/quietpost/internal/ratelimit"
)

// Store is a Redis-backed counter store. Counters share the Redis instance
// with the block list mirror, so sibling processes see the same windows.
type Store struct {
	client *redis.Client
}

// NewStore wraps an existing Redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// NewStoreFromURL connects to Redis and verifies the connection.
func NewStoreFromURL(redisURL string) (*Store, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 2 * time.Second
	opt.WriteTimeout = 2 * time.Second

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &Store{client: client}, nil
}

// Client exposes the underlying connection for components sharing it.
func (s *Store) Client() *redis.Client {
	return s.client
}

func (s *Store) Get(ctx context.Context, key string) (int64, bool, error) {
	val, err := s.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

func (s *Store) Create(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, key, 1, ttl).Err()
}

func (s *Store) Incr(ctx context.Context, key string) error {
	// INCR does not touch the key's TTL, which is exactly what the
	// fixed window wants.
	return s.client.Incr(ctx, key).Err()
}

func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	return s.client.TTL(ctx, key).Result()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ensure Store implements ratelimit.CounterStore
var _ ratelimit.CounterStore = (*Store)(nil)
