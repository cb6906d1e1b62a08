package cache

import (
	"context"
	"errors"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/resilience"
)

type redisStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// RedisBackend shares entries between processes through Redis. Calls go
// through a circuit breaker so an unreachable Redis costs one fast failure
// per lookup instead of a network timeout.
type RedisBackend struct {
	store   redisStore
	ttl     time.Duration
	breaker *resilience.Breaker
}

// NewRedisBackend stores entries for ttl; zero keeps them until purged.
func NewRedisBackend(client *pkgredis.Client, ttl time.Duration) *RedisBackend {
	return newRedisBackend(client, ttl)
}

func newRedisBackend(store redisStore, ttl time.Duration) *RedisBackend {
	return &RedisBackend{
		store:   store,
		ttl:     ttl,
		breaker: resilience.NewBreaker("redis-cache", resilience.BreakerConfig{}),
	}
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := b.breaker.Do(func() error {
		var err error
		data, err = b.store.Get(ctx, key)
		if errors.Is(err, pkgredis.ErrMiss) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return data, data != nil, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	return b.breaker.Do(func() error {
		return b.store.Set(ctx, key, value, b.ttl)
	})
}

func (b *RedisBackend) Purge(ctx context.Context) error {
	return b.breaker.Do(func() error {
		_, err := b.store.FlushByPattern(ctx, keyPrefix+"*")
		return err
	})
}
