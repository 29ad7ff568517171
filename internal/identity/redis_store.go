// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package identity

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pdiddy/truthfinder/pkg/types"
)

const defaultRedisPrefix = "truthfinder:session:"

// RedisStore is a SessionStore shared by every server replica. Each key
// expires after the idle TTL and is refreshed on access.
type RedisStore struct {
	rdb   *redis.Client
	keyNS string
	ttl   time.Duration
}

// NewRedisStore returns a RedisStore. An empty prefix uses
// "truthfinder:session:" and a ttl <= 0 uses 24 hours.
func NewRedisStore(rdb *redis.Client, keyPrefix string, ttl time.Duration) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = defaultRedisPrefix
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{rdb: rdb, keyNS: keyPrefix, ttl: ttl}
}

func (s *RedisStore) key(token string) string { return s.keyNS + token }

func (s *RedisStore) Get(ctx context.Context, token string) (types.Identity, bool, error) {
	val, err := s.rdb.GetEx(ctx, s.key(token), s.ttl).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return types.Identity(val), true, nil
}

// Claim uses SETNX so two replicas racing on a new token agree on one identity.
func (s *RedisStore) Claim(ctx context.Context, token string, id types.Identity) (types.Identity, error) {
	set, err := s.rdb.SetNX(ctx, s.key(token), string(id), s.ttl).Result()
	if err != nil {
		return "", err
	}
	if set {
		return id, nil
	}
	existing, ok, err := s.Get(ctx, token)
	if err != nil {
		return "", err
	}
	if !ok {
		// Expired between SETNX and GET; take the slot.
		if err := s.rdb.Set(ctx, s.key(token), string(id), s.ttl).Err(); err != nil {
			return "", err
		}
		return id, nil
	}
	return existing, nil
}

func (s *RedisStore) Del(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, s.key(token)).Err()
}
