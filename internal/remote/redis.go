package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/abhisek/studyplan/internal/progress"
)

// redisKeyPrefix namespaces documents inside a shared Redis database.
const redisKeyPrefix = "studyplan:doc:"

// RedisClient stores documents as JSON strings in Redis.
type RedisClient struct {
	Client *redis.Client
}

// ParseRedisURL validates a Redis connection URL.
func ParseRedisURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("redis URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return opts, nil
}

// NewRedisClient connects to url and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*RedisClient, error) {
	opts, err := ParseRedisURL(url)
	if err != nil {
		return nil, err
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisClient{Client: client}, nil
}

// Close shuts down the redis client.
func (c *RedisClient) Close() error {
	return c.Client.Close()
}

// HealthCheck verifies the redis connection is alive.
func (c *RedisClient) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// Create stores doc under a fresh random handle.
func (c *RedisClient) Create(ctx context.Context, doc progress.Snapshot) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("remote create: encode: %w", err)
	}
	handle := uuid.NewString()
	ok, err := c.Client.SetNX(ctx, redisKeyPrefix+handle, raw, 0).Result()
	if err != nil {
		return "", fmt.Errorf("remote create: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("remote create: handle %s already taken", handle)
	}
	return handle, nil
}

// Get fetches the document stored under handle.
func (c *RedisClient) Get(ctx context.Context, handle string) (progress.Snapshot, error) {
	raw, err := c.Client.Get(ctx, redisKeyPrefix+handle).Bytes()
	if errors.Is(err, redis.Nil) {
		return progress.Snapshot{}, fmt.Errorf("remote get %s: %w", handle, ErrNotFound)
	}
	if err != nil {
		return progress.Snapshot{}, fmt.Errorf("remote get: %w", err)
	}

	var doc progress.Snapshot
	if err := json.Unmarshal(raw, &doc); err != nil {
		return progress.Snapshot{}, fmt.Errorf("remote get: decode: %w", err)
	}
	if doc.Completion == nil {
		doc.Completion = make(map[string]bool)
	}
	return doc, nil
}

// Put replaces an existing document. Missing handles yield ErrNotFound.
func (c *RedisClient) Put(ctx context.Context, handle string, doc progress.Snapshot) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("remote put: encode: %w", err)
	}
	ok, err := c.Client.SetXX(ctx, redisKeyPrefix+handle, raw, 0).Result()
	if err != nil {
		return fmt.Errorf("remote put: %w", err)
	}
	if !ok {
		return fmt.Errorf("remote put %s: %w", handle, ErrNotFound)
	}
	return nil
}
