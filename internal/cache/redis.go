// Package cache keeps recently read products in Redis. A nil *ProductCache is
// valid and caches nothing.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"inventory/m/domain"
)

const (
	productTTL = time.Minute

	// invalidated marks a key whose product just changed. While it lives,
	// Set cannot store a copy read before the change.
	invalidated     = "invalidated"
	invalidationTTL = 5 * time.Second
)

type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	hold   time.Duration
}

// NewProductCache connects to Redis at addr. An empty addr disables caching
// and returns a nil cache.
func NewProductCache(addr string) (*ProductCache, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Printf("Successfully connected to Redis! Ping response: %s", pong)

	return newProductCache(client), nil
}

func newProductCache(client *redis.Client) *ProductCache {
	return &ProductCache{client: client, ttl: productTTL, hold: invalidationTTL}
}

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

// Get returns the cached product. Misses and Redis failures both report false.
func (c *ProductCache) Get(ctx context.Context, id int64) (domain.Product, bool) {
	var p domain.Product
	if c == nil {
		return p, false
	}
	raw, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache: get product %d: %v", id, err)
		}
		return p, false
	}
	if string(raw) == invalidated {
		return p, false
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Printf("cache: decode product %d: %v", id, err)
		return p, false
	}
	return p, true
}

// Set stores p unless the key is occupied, either by a cached copy or by a
// recent invalidation.
func (c *ProductCache) Set(ctx context.Context, p domain.Product) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		log.Printf("cache: encode product %d: %v", p.ID, err)
		return
	}
	if err := c.client.SetNX(ctx, productKey(p.ID), raw, c.ttl).Err(); err != nil {
		log.Printf("cache: set product %d: %v", p.ID, err)
	}
}

// Invalidate replaces the given products with a short-lived marker so that
// readers who loaded them before the change cannot cache them again.
func (c *ProductCache) Invalidate(ctx context.Context, ids ...int64) {
	if c == nil || len(ids) == 0 {
		return
	}
	pipe := c.client.Pipeline()
	for _, id := range ids {
		pipe.Set(ctx, productKey(id), invalidated, c.hold)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("cache: invalidate products %v: %v", ids, err)
	}
}

func (c *ProductCache) Close() {
	if c != nil && c.client != nil {
		c.client.Close()
		log.Println("Redis connection closed.")
	}
}
