package db

import (
	"context"
	"time"
)

// Store is the Redis-backed facade combining all sub-interfaces.
type Store interface {
	Pinger
	JSONStore
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JSONStore provides JSON document operations.
type JSONStore interface {
	// JSONSetNX stores a document only if key does not exist yet.
	JSONSetNX(ctx context.Context, key string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	// JSONGetMulti fetches root documents for keys in one round-trip.
	// Missing keys yield nil entries.
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
	// JSONCompareAndSet replaces the document at key only when the integer
	// at revPath equals expected. Returns ErrKeyNotFound or a *RevisionMismatch.
	JSONCompareAndSet(ctx context.Context, key, revPath string, expected int, data []byte) error
	Del(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
