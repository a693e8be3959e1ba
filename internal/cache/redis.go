// Package cache keeps cart snapshots in Redis for deployments running more than one instance.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CartTTL expires carts nobody touched for a month.
const CartTTL = 30 * 24 * time.Hour

type CartCache struct {
	client      *redis.Client
	serviceName string
	ttl         time.Duration
}

func NewCartCache(addr, serviceName string) *CartCache {
	return NewCartCacheFromClient(redis.NewClient(&redis.Options{Addr: addr}), serviceName)
}

func NewCartCacheFromClient(c *redis.Client, serviceName string) *CartCache {
	return &CartCache{client: c, serviceName: serviceName, ttl: CartTTL}
}

func (r *CartCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *CartCache) Close() error { return r.client.Close() }

func (r *CartCache) LoadCart(ctx context.Context, sessionID string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.GenerateKey("cart", sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *CartCache) SaveCart(ctx context.Context, sessionID string, snapshot []byte) error {
	return r.client.Set(ctx, r.GenerateKey("cart", sessionID), snapshot, r.ttl).Err()
}

func (r *CartCache) DeleteCart(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, r.GenerateKey("cart", sessionID)).Err()
}

func (r *CartCache) GenerateKey(operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", r.serviceName, operation, key)
}
