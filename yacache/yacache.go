// Package yacache provides a generic key-value cache abstraction with two
// concrete backends: an in-memory map protected by a RWMutex, and a Redis
// client. Both expose the same small API so that connstate.Machine's FSM
// storage and yaratelimit.RateLimit's window counters can run against
// either backend without changing their call sites.
//
// # Generic design
//
// The [Cache] interface is parameterised by a type parameter T constrained
// to either *redis.Client or MemoryContainer, so the concrete
// implementation can expose its raw driver value via [Cache.Raw] without
// an unsafe type assertion.
//
// # Surface
//
// Earlier revisions of this package additionally exposed a Redis-hash-
// oriented API (HSetEX/HGet/HGetAll/HLen/...) sized for session-store and
// idempotency-key workloads. Nothing in this module ever addresses a
// cache entry by a (mainKey, childKey) pair — connstate stores one
// marshalled state per socket id, and yaratelimit stores one counter per
// (id, group) — so that surface was dropped in favor of the flat
// Get/Set/Del/Exists shape both callers actually use.
//
// # Thread-safety
//
//   - [Redis] is as thread-safe as the underlying go-redis/v9 client.
//   - [Memory] uses a sync.RWMutex to protect all reads/writes; the
//     background TTL sweeper acquires the mutex only for short, bounded
//     periods.
//
// # Error handling
//
// All methods return the custom yaerrors.Error type so that callers get
// stack-traces and HTTP status codes for free.
package yacache

import (
	"context"
	"time"

	"github.com/znsocket/znsocket-go/yaerrors"
	"github.com/redis/go-redis/v9"
)

// Cache is a generic key-value cache abstraction.
//
// The type parameter T must satisfy [Container] and is used by [Cache.Raw]
// to return the underlying low-level client (*redis.Client or
// MemoryContainer).
type Cache[T Container] interface {
	// Raw exposes the concrete client, for advanced operations outside the
	// scope of the high-level API.
	Raw() T

	// Set stores key -> value and applies a TTL. A zero ttl means "store
	// indefinitely".
	Set(ctx context.Context, key string, value string, ttl time.Duration) yaerrors.Error

	// Get retrieves the value previously saved under key. If the key is
	// missing (or, for Memory, expired but not yet swept), it returns an
	// ErrKeyNotFound-wrapped yaerrors.Error.
	Get(ctx context.Context, key string) (string, yaerrors.Error)

	// Exists reports whether every one of the given keys is currently
	// present.
	Exists(ctx context.Context, keys ...string) (bool, yaerrors.Error)

	// Del unconditionally removes key. The operation is idempotent:
	// deleting a non-existent key is not an error.
	Del(ctx context.Context, key string) yaerrors.Error

	// Ping verifies that the cache backend is reachable and healthy.
	Ping(ctx context.Context) yaerrors.Error

	// Close flushes buffers and releases resources.
	Close() yaerrors.Error
}

// Container is the union (via type-set) of all backend client types the
// generic cache can wrap. Add new backends by extending this constraint
// and updating NewCache accordingly.
type Container interface {
	*redis.Client | MemoryContainer
}

// NewCache performs a runtime type-switch on the supplied container to
// create the matching concrete implementation. An unsupported type falls
// back to an in-memory cache with a default 1-minute sweep interval, so
// callers never get a nil value.
func NewCache[T Container](container T) Cache[T] {
	switch backend := any(container).(type) {
	case *redis.Client:
		value, _ := any(NewRedis(backend)).(Cache[T])

		return value
	case MemoryContainer:
		value, _ := any(NewMemory(backend, time.Minute)).(Cache[T])

		return value
	default:
		value, _ := any(NewMemory(NewMemoryContainer(), time.Minute)).(Cache[T])

		return value
	}
}
