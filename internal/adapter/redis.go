package adapter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of Redis commands needed by the scan lock
//
//go:generate mockgen -source=redis.go -destination=../mocks/redis.go -package=mocks -mock_names=RedisClient=MockRedisClient
type RedisClient interface {
	// Ping checks if Redis is reachable
	Ping(ctx context.Context) error

	// SetNX sets key to value with a ttl only if the key does not exist
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)

	// Eval runs a Lua script and returns its integer result
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (int64, error)

	Close() error
}

type redisClient struct {
	client *redis.Client
}

// NewRedisClient creates a go-redis backed RedisClient
func NewRedisClient(addr, password string, db int) RedisClient {
	return &redisClient{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (r *redisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisClient) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, value, ttl).Result()
}

func (r *redisClient) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (int64, error) {
	return r.client.Eval(ctx, script, keys, args...).Int64()
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
