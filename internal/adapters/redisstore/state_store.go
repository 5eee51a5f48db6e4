package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/credilift/callback-service/internal/domain"
)

// StateStore is the Redis-backed client state store. Values are namespaced
// under a key prefix and TTL-bound; there is no transactional guarantee,
// consistent with the best-effort last-write-wins contract.
type StateStore struct {
	client *redis.Client
	prefix string
}

// New creates a Redis state store. prefix namespaces all keys.
func New(client *redis.Client, prefix string) *StateStore {
	return &StateStore{
		client: client,
		prefix: prefix,
	}
}

// NewFromOptions dials Redis and returns a store over the connection.
func NewFromOptions(addr, password string, db int, prefix string) *StateStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return New(client, prefix)
}

func (s *StateStore) key(key string) string {
	return s.prefix + ":" + key
}

// Get returns the value for key.
func (s *StateStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrStateKeyMissing
	}
	if err != nil {
		return "", domain.WrapError(domain.ErrorCodeStateUnavailable, "redis get", err)
	}
	return val, nil
}

// Set stores value under key with a TTL.
func (s *StateStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return domain.WrapError(domain.ErrorCodeStateUnavailable, "redis set", err)
	}
	return nil
}

// SetOnce stores value only if key is absent. Returns true when this call
// claimed the key.
func (s *StateStore) SetOnce(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(key), value, ttl).Result()
	if err != nil {
		return false, domain.WrapError(domain.ErrorCodeStateUnavailable, "redis setnx", err)
	}
	return ok, nil
}

// Ping reports connection liveness for health checks.
func (s *StateStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying connection.
func (s *StateStore) Close() error {
	return s.client.Close()
}
