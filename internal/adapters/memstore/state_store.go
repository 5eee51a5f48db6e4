package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/credilift/callback-service/internal/domain"
)

type entry struct {
	value   string
	expires time.Time // zero means no expiry
}

// StateStore is an in-process state store for development and tests. Same
// contract as the Redis implementation: best-effort, last-write-wins,
// TTL-bound entries.
type StateStore struct {
	mu     sync.Mutex
	data   map[string]entry
	nextGC time.Time
}

// New creates an empty in-memory state store.
func New() *StateStore {
	return &StateStore{
		data:   make(map[string]entry),
		nextGC: time.Now().Add(time.Minute),
	}
}

// Get returns the value for key.
func (s *StateStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok || s.expired(e, time.Now()) {
		return "", domain.ErrStateKeyMissing
	}
	return e.value, nil
}

// Set stores value under key with a TTL.
func (s *StateStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.gc(now)
	s.data[key] = entry{value: value, expires: expiry(now, ttl)}
	return nil
}

// SetOnce stores value only if key is absent. Returns true when this call
// claimed the key.
func (s *StateStore) SetOnce(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.gc(now)
	if e, ok := s.data[key]; ok && !s.expired(e, now) {
		return false, nil
	}
	s.data[key] = entry{value: value, expires: expiry(now, ttl)}
	return true, nil
}

// Ping always succeeds; the store lives in-process.
func (s *StateStore) Ping(context.Context) error {
	return nil
}

func (s *StateStore) expired(e entry, now time.Time) bool {
	return !e.expires.IsZero() && !e.expires.After(now)
}

// gc sweeps expired entries at most once a minute. Caller holds the lock.
func (s *StateStore) gc(now time.Time) {
	if now.Before(s.nextGC) {
		return
	}
	for k, e := range s.data {
		if s.expired(e, now) {
			delete(s.data, k)
		}
	}
	s.nextGC = now.Add(time.Minute)
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
