package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheRepository wraps Redis for transcript response caching and the
// progression halt flag.
type CacheRepository struct {
	client *redis.Client
}

// NewCacheRepository constructs a CacheRepository.
func NewCacheRepository(client *redis.Client) *CacheRepository {
	return &CacheRepository{client: client}
}

// Get returns the cached value for a key. A miss returns redis.Nil.
func (r *CacheRepository) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

// IsMiss reports whether the error represents a cache miss.
func IsMiss(err error) bool {
	return err == redis.Nil
}

// Set stores a value with a TTL.
func (r *CacheRepository) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// SetFlag raises a persistent boolean flag.
func (r *CacheRepository) SetFlag(ctx context.Context, key string) error {
	return r.client.Set(ctx, key, "1", 0).Err()
}

// FlagSet reports whether the flag is raised.
func (r *CacheRepository) FlagSet(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ClearFlag lowers the flag.
func (r *CacheRepository) ClearFlag(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
