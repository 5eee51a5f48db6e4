package ports

import (
	"context"
	"time"
)

// StateStore is the client-state key-value store used by the recovery
// listener across page loads. Reads and writes are best-effort,
// last-write-wins; callers degrade on error instead of failing.
type StateStore interface {
	// Get returns the value for key, or domain.ErrStateKeyMissing when absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key with a TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetOnce stores value only if key is absent. Returns true when this
	// call claimed the key, false when it already existed. Used as the
	// once-only mark that stops recovery navigation loops.
	SetOnce(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
}
