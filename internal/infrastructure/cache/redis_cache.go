// Package cache holds the redis backed image cache.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wolfitem/news-enricher/internal/domain/model"
)

const keyPrefix = "news-enricher:image:"

// RedisImageCache stores image lookups as plain string keys with a TTL.
type RedisImageCache struct {
	client *redis.Client
}

// NewRedisImageCache connects to redis and checks the connection.
func NewRedisImageCache(cfg model.CacheConfig) (*RedisImageCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	return &RedisImageCache{client: client}, nil
}

func (c *RedisImageCache) Get(ctx context.Context, pageURL string) (string, bool, error) {
	image, err := c.client.Get(ctx, Key(pageURL)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return image, true, nil
}

func (c *RedisImageCache) Set(ctx context.Context, pageURL, image string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if err := c.client.Set(ctx, Key(pageURL), image, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisImageCache) Close() error {
	return c.client.Close()
}

// Key hashes an article URL into a fixed length redis key.
func Key(pageURL string) string {
	sum := sha256.Sum256([]byte(pageURL))
	return keyPrefix + hex.EncodeToString(sum[:])
}
