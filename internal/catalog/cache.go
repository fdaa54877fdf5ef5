package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quickbite/cart-engine/internal/domain"
)

type RestaurantCache interface {
	Get(ctx context.Context, id string) (*domain.Restaurant, error)
	Set(ctx context.Context, id string, r *domain.Restaurant) error
}

var ErrCacheMiss = errors.New("cache miss")

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, id string) (*domain.Restaurant, error) {
	data, err := r.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var restaurant domain.Restaurant
	if err := json.Unmarshal(data, &restaurant); err != nil {
		return nil, fmt.Errorf("unmarshal restaurant failed: %w", err)
	}

	return &restaurant, nil
}

func (r *RedisCache) Set(ctx context.Context, id string, restaurant *domain.Restaurant) error {
	data, err := json.Marshal(restaurant)
	if err != nil {
		return fmt.Errorf("marshal restaurant failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if err := r.client.Set(ctx, cacheKey(id), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(id string) string {
	return fmt.Sprintf("restaurant:%s", id)
}
