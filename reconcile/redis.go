// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/netascode/go-gnmi-intent/value"
)

// DefaultRedisPrefix is prepended to the host name to form the state key.
const DefaultRedisPrefix = "gnmi-intent:state:"

// RedisStore keeps device state in Redis, one string key per host.
// Useful when several operators share a fleet.
type RedisStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// RedisPrefix overrides DefaultRedisPrefix.
func RedisPrefix(prefix string) func(*RedisStore) {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// RedisTTL expires state keys after d. Zero keeps them forever.
func RedisTTL(d time.Duration) func(*RedisStore) {
	return func(s *RedisStore) {
		s.ttl = d
	}
}

// NewRedisStore connects lazily to the Redis server at addr.
func NewRedisStore(addr, password string, db int, opts ...func(*RedisStore)) *RedisStore {
	return NewRedisStoreFromClient(backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *backend.Client, opts ...func(*RedisStore)) *RedisStore {
	s := &RedisStore{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(host string) string {
	return s.prefix + host
}

// Load reads the state of host.
func (s *RedisStore) Load(ctx context.Context, host string) (value.Value, error) {
	data, err := s.client.Get(ctx, s.key(host)).Bytes()
	if errors.Is(err, backend.Nil) {
		return value.EmptyMap(), nil
	}
	if err != nil {
		return value.Value{}, fmt.Errorf("failed to get state from redis: %w", err)
	}
	return decodeState(data)
}

// Save replaces the state of host.
func (s *RedisStore) Save(ctx context.Context, host string, state value.Value) error {
	data, err := state.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := s.client.Set(ctx, s.key(host), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save state to redis: %w", err)
	}
	return nil
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
