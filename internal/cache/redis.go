package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/intakt/hunter/backend/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisClient wraps the redis.Client with centralized connection pooling.
// Redis is strictly an accelerator here (contact counts, last scrape form);
// every caller must tolerate a nil client.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates and initializes a Redis client with connection pooling.
func NewRedisClient(host string, port string, password string) (*RedisClient, error) {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 5,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.ErrorWithFields("Failed to connect to Redis", err)
		return nil, err
	}

	rc := &RedisClient{client: client}

	logger.Log.Info("redis client connected", zap.String("address", addr))

	return rc, nil
}

// Close closes the Redis connection gracefully.
func (rc *RedisClient) Close() error {
	if rc == nil || rc.client == nil {
		return nil
	}
	return rc.client.Close()
}

// Get retrieves a value from Redis.
func (rc *RedisClient) Get(ctx context.Context, key string) (string, error) {
	if rc == nil || rc.client == nil {
		return "", redis.Nil
	}
	return rc.client.Get(ctx, key).Result()
}

// GetInt retrieves an integer value from Redis.
func (rc *RedisClient) GetInt(ctx context.Context, key string) (int64, error) {
	if rc == nil || rc.client == nil {
		return 0, redis.Nil
	}
	return rc.client.Get(ctx, key).Int64()
}

// SetEx stores a value in Redis with expiration.
func (rc *RedisClient) SetEx(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if rc == nil || rc.client == nil {
		return nil
	}
	return rc.client.Set(ctx, key, value, ttl).Err()
}

// Set stores a value in Redis without expiration.
func (rc *RedisClient) Set(ctx context.Context, key string, value interface{}) error {
	if rc == nil || rc.client == nil {
		return nil
	}
	return rc.client.Set(ctx, key, value, 0).Err()
}

// Del deletes one or more keys from Redis.
func (rc *RedisClient) Del(ctx context.Context, keys ...string) error {
	if rc == nil || rc.client == nil {
		return nil
	}
	return rc.client.Del(ctx, keys...).Err()
}

// Ping tests the Redis connection.
func (rc *RedisClient) Ping(ctx context.Context) error {
	if rc == nil || rc.client == nil {
		return redis.Nil
	}
	return rc.client.Ping(ctx).Err()
}

// IsMiss reports whether an error is a cache miss rather than a failure.
func IsMiss(err error) bool {
	return err == redis.Nil
}
