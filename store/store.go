package store

import (
	"context"
	"time"

	"github.com/znsocket/znsocket-go/yaerrors"
	"github.com/redis/go-redis/v9"
)

// Store is the Redis-subset command executor of spec §4.1. The type
// parameter T is the concrete backing client, mirroring yacache.Cache[T
// Container] — callers switch backend by passing a different Container to
// NewStore, never by branching on backend-specific code.
type Store[T Container] interface {
	// Raw exposes the concrete backing client (*redis.Client or
	// MemoryContainer) for operations outside the command surface below.
	Raw() T

	// Strings

	Set(ctx context.Context, key string, value string, opts SetOptions) (bool, yaerrors.Error)
	Get(ctx context.Context, key string) (string, yaerrors.Error)
	Incr(ctx context.Context, key string, by int64) (int64, yaerrors.Error)
	Exists(ctx context.Context, key string) (bool, yaerrors.Error)
	Delete(ctx context.Context, key string) (bool, yaerrors.Error)
	Copy(ctx context.Context, src string, dst string, replace bool) (bool, yaerrors.Error)

	// Hash

	HSet(ctx context.Context, key string, field string, value string) (bool, yaerrors.Error)
	HGet(ctx context.Context, key string, field string) (string, yaerrors.Error)
	HMGet(ctx context.Context, key string, fields ...string) (map[string]*string, yaerrors.Error)
	HKeys(ctx context.Context, key string) ([]string, yaerrors.Error)
	HVals(ctx context.Context, key string) ([]string, yaerrors.Error)
	HGetAll(ctx context.Context, key string) (map[string]string, yaerrors.Error)
	HExists(ctx context.Context, key string, field string) (bool, yaerrors.Error)
	HDel(ctx context.Context, key string, field string) (bool, yaerrors.Error)
	HLen(ctx context.Context, key string) (int64, yaerrors.Error)

	// List

	LLen(ctx context.Context, key string) (int64, yaerrors.Error)
	RPush(ctx context.Context, key string, values ...string) (int64, yaerrors.Error)
	LPush(ctx context.Context, key string, values ...string) (int64, yaerrors.Error)
	LIndex(ctx context.Context, key string, index int) (string, yaerrors.Error)
	LRange(ctx context.Context, key string, start int, stop int) ([]string, yaerrors.Error)
	LSet(ctx context.Context, key string, index int, value string) yaerrors.Error
	LRem(ctx context.Context, key string, count int, value string) (int64, yaerrors.Error)
	LInsert(ctx context.Context, key string, where Where, pivot string, value string) (int64, yaerrors.Error)
	LPop(ctx context.Context, key string, fromLeft bool, count int) ([]string, yaerrors.Error)

	// Set

	SAdd(ctx context.Context, key string, members ...string) (int64, yaerrors.Error)
	SRem(ctx context.Context, key string, members ...string) (int64, yaerrors.Error)
	SMembers(ctx context.Context, key string) ([]string, yaerrors.Error)
	SCard(ctx context.Context, key string) (int64, yaerrors.Error)

	// Bulk

	FlushAll(ctx context.Context) yaerrors.Error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) yaerrors.Error
	// Close releases backend resources.
	Close() yaerrors.Error
}

// Container is the union of concrete backing clients a Store can wrap.
type Container interface {
	*redis.Client | MemoryContainer
}

// NewStore runtime type-switches on container the same way
// yacache.NewCache does, so adding a backend means extending this
// constraint and switch, never the call sites.
func NewStore[T Container](container T) Store[T] {
	switch typed := any(container).(type) {
	case *redis.Client:
		value, _ := any(NewRedis(typed)).(Store[T])

		return value
	case MemoryContainer:
		value, _ := any(NewMemory(typed, time.Minute)).(Store[T])

		return value
	default:
		value, _ := any(NewMemory(NewMemoryContainer(), time.Minute)).(Store[T])

		return value
	}
}
