package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/figueredofxx/katalogo.digital/pkg/config"
	"github.com/go-redis/redis/v8"
)

// storefront payloads change rarely; order status is polled by customers.
const (
	storefrontTTL = 5 * time.Minute
)

// Cache fronts the storage backends with redis for the hot public reads.
type Cache struct {
	client *redis.Client
}

func NewCache(cfg *config.RedisConfig) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
	}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *Cache) getJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func storefrontKey(identifier string) string {
	return fmt.Sprintf("storefront:%s", identifier)
}

// CacheStorefront stores the public store payload under the identifier the
// customer used (slug or custom domain).
func (c *Cache) CacheStorefront(ctx context.Context, identifier string, payload interface{}) error {
	return c.setJSON(ctx, storefrontKey(identifier), payload, storefrontTTL)
}

// GetStorefront loads a cached payload; a miss returns redis.Nil.
func (c *Cache) GetStorefront(ctx context.Context, identifier string, dest interface{}) error {
	return c.getJSON(ctx, storefrontKey(identifier), dest)
}

// InvalidateStorefront drops the cached payloads for every identifier the
// tenant is reachable by. Called after settings or catalog mutations.
func (c *Cache) InvalidateStorefront(ctx context.Context, identifiers ...string) error {
	keys := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		if id != "" {
			keys = append(keys, storefrontKey(id))
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// IsCacheMiss reports whether the error is just an absent key.
func IsCacheMiss(err error) bool {
	return err == redis.Nil
}
