// SPDX-License-Identifier: AGPL-3.0-only
package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisNoncePrefix = "devmcp:nonce:"

// RedisNonceStore shares replay state between replicas. Keys expire one
// replay window after the request's issue time, so Sweep has nothing to do.
type RedisNonceStore struct {
	client *redis.Client
	window time.Duration
	now    func() time.Time
}

// NewRedisNonceStore connects to the Redis instance at url
// (redis://[:password@]host:port/db).
func NewRedisNonceStore(url string, window time.Duration) (*RedisNonceStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisNonceStoreFromClient(redis.NewClient(opts), window), nil
}

// NewRedisNonceStoreFromClient wraps an existing client
func NewRedisNonceStoreFromClient(client *redis.Client, window time.Duration) *RedisNonceStore {
	return &RedisNonceStore{client: client, window: window, now: time.Now}
}

// Ping checks connectivity
func (s *RedisNonceStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client
func (s *RedisNonceStore) Close() error {
	return s.client.Close()
}

// Exists implements NonceStore
func (s *RedisNonceStore) Exists(ctx context.Context, nonce string) (bool, error) {
	n, err := s.client.Exists(ctx, redisNoncePrefix+nonce).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Insert implements NonceStore
func (s *RedisNonceStore) Insert(ctx context.Context, nonce string, issuedAt time.Time) (bool, error) {
	ok, err := s.client.SetNX(ctx, redisNoncePrefix+nonce, strconv.FormatInt(issuedAt.Unix(), 10), s.ttl(issuedAt)).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// ttl keeps a key until issuedAt+window. A future-dated request still
// passes the skew check for that long, so the key must outlive it.
func (s *RedisNonceStore) ttl(issuedAt time.Time) time.Duration {
	ttl := s.window
	if ahead := issuedAt.Sub(s.now()); ahead > 0 {
		ttl += ahead
	}
	return ttl
}

// Sweep implements NonceStore
func (s *RedisNonceStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Len implements NonceStore
func (s *RedisNonceStore) Len(ctx context.Context) (int, error) {
	count := 0
	iter := s.client.Scan(ctx, 0, redisNoncePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan: %w", err)
	}
	return count, nil
}
