// internal/idempotency/redis.go
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// idem:order:create:{sha256 of key} -> pending marker or JSON Record
const keyOrderCreate = "idem:order:create:%s"

func redisKey(key string) string {
	return fmt.Sprintf(keyOrderCreate, Fingerprint([]byte(key)))
}

const pendingMarker = "pending"

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Begin(ctx context.Context, key string) (*Record, error) {
	k := redisKey(key)

	// One retry covers a key expiring between SETNX and GET.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.rdb.SetNX(ctx, k, pendingMarker, s.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
		}
		if ok {
			return nil, nil
		}

		val, err := s.rdb.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read idempotency key: %w", err)
		}
		if val == pendingMarker {
			return nil, ErrInFlight
		}

		var rec Record
		if err := json.Unmarshal([]byte(val), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode idempotency record: %w", err)
		}
		return &rec, nil
	}

	return nil, ErrInFlight
}

func (s *RedisStore) Complete(ctx context.Context, key string, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, redisKey(key), b, s.ttl).Err()
}

func (s *RedisStore) Abandon(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, redisKey(key)).Err()
}
