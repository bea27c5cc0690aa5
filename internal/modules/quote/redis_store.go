// README: Quote store backed by Redis string keys with TTL; consumption uses GETDEL.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ridebroker/internal/types"
)

const quoteKeyPrefix = "broker:quote:%s"

type RedisStore struct {
	redis *redis.Client
	now   func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{redis: client, now: time.Now}
}

func (s *RedisStore) Save(ctx context.Context, q Quote) error {
	ttl := q.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return ErrExpired
	}
	payload, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}
	return s.redis.Set(ctx, quoteKey(q.ID), payload, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id types.ID) (Quote, error) {
	val, err := s.redis.Get(ctx, quoteKey(id)).Bytes()
	return s.decode(ctx, id, val, err)
}

func (s *RedisStore) Take(ctx context.Context, id types.ID) (Quote, error) {
	val, err := s.redis.GetDel(ctx, quoteKey(id)).Bytes()
	return s.decode(ctx, id, val, err)
}

func (s *RedisStore) decode(ctx context.Context, id types.ID, val []byte, err error) (Quote, error) {
	if errors.Is(err, redis.Nil) {
		return Quote{}, ErrNotFound
	}
	if err != nil {
		return Quote{}, err
	}
	var q Quote
	if err := json.Unmarshal(val, &q); err != nil {
		return Quote{}, fmt.Errorf("decode quote %s: %w", id, err)
	}
	// Redis TTL has second granularity; the quote's own deadline wins.
	if q.Expired(s.now()) {
		_ = s.redis.Del(ctx, quoteKey(id)).Err()
		return Quote{}, ErrExpired
	}
	return q, nil
}

func quoteKey(id types.ID) string {
	return fmt.Sprintf(quoteKeyPrefix, string(id))
}
