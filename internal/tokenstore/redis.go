package tokenstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
)

const defaultRedisPrefix = "hready:session:"

// RedisKeyspace stores each namespace as one hash.
type RedisKeyspace struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis builds a redis keyspace on an existing client.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *RedisKeyspace {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisKeyspace{client: client, prefix: prefix, ttl: ttl}
}

// For returns the store bound to namespace.
func (k *RedisKeyspace) For(namespace string) Store {
	return &redisStore{ks: k, key: k.prefix + namespace}
}

type redisStore struct {
	ks  *RedisKeyspace
	key string
}

func (s *redisStore) Save(ctx context.Context, rec domain.Record) error {
	if err := validate(rec); err != nil {
		return err
	}
	values := make(map[string]any, len(domain.RecordKeys))
	for k, v := range rec.Values() {
		values[k] = v
	}
	// MULTI/EXEC: the old hash is replaced by the new one in a single step.
	_, err := s.ks.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.HSet(ctx, s.key, values)
		if s.ks.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ks.ttl)
		}
		return nil
	})
	return err
}

func (s *redisStore) Read(ctx context.Context) (domain.Record, error) {
	values, err := s.ks.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return domain.Record{}, err
	}
	return domain.RecordFromValues(values), nil
}

func (s *redisStore) Clear(ctx context.Context) error {
	return s.ks.client.Del(ctx, s.key).Err()
}
