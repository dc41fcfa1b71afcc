package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations interface.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Remember returns the cached value under key, or calls load and caches its
// result for ttl. Cache errors other than a miss are ignored so a broken cache
// degrades to a pass-through. hit reports whether the value came from the cache.
func Remember[T any](ctx context.Context, c Service, key string, ttl time.Duration, load func(context.Context) (T, error)) (value T, hit bool, err error) {
	if c != nil {
		if err := c.Get(ctx, key, &value); err == nil {
			return value, true, nil
		}
	}

	value, err = load(ctx)
	if err != nil {
		return value, false, err
	}

	if c != nil && ttl > 0 {
		_ = c.Set(ctx, key, value, ttl)
	}
	return value, false, nil
}
