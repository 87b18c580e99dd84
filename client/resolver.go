package client

import (
	"context"

	"github.com/znsocket/znsocket-go/yaerrors"
	"github.com/znsocket/znsocket-go/adapter"
	"github.com/znsocket/znsocket-go/store"
)

// Backend is the narrow slice of store.Store[T] that List and Dict need.
// Any store.Store[T] instantiation satisfies this structurally, so the
// client package never takes on store's generic type parameter.
type Backend interface {
	Exists(ctx context.Context, key string) (bool, yaerrors.Error)
	Delete(ctx context.Context, key string) (bool, yaerrors.Error)
	Copy(ctx context.Context, src string, dst string, replace bool) (bool, yaerrors.Error)

	LLen(ctx context.Context, key string) (int64, yaerrors.Error)
	LRange(ctx context.Context, key string, start int, stop int) ([]string, yaerrors.Error)
	LIndex(ctx context.Context, key string, index int) (string, yaerrors.Error)
	LSet(ctx context.Context, key string, index int, value string) yaerrors.Error
	RPush(ctx context.Context, key string, values ...string) (int64, yaerrors.Error)
	LInsert(ctx context.Context, key string, where store.Where, pivot string, value string) (int64, yaerrors.Error)
	LPop(ctx context.Context, key string, fromLeft bool, count int) ([]string, yaerrors.Error)
	LRem(ctx context.Context, key string, count int, value string) (int64, yaerrors.Error)

	HLen(ctx context.Context, key string) (int64, yaerrors.Error)
	HGet(ctx context.Context, key string, field string) (string, yaerrors.Error)
	HSet(ctx context.Context, key string, field string, value string) (bool, yaerrors.Error)
	HDel(ctx context.Context, key string, field string) (bool, yaerrors.Error)
	HKeys(ctx context.Context, key string) ([]string, yaerrors.Error)
	HVals(ctx context.Context, key string) ([]string, yaerrors.Error)
	HGetAll(ctx context.Context, key string) (map[string]string, yaerrors.Error)
}

// Resolver is shared state every List/Dict built from the same storage
// backend holds in common: the backend itself, and the adapter registry a
// rehydrated cross-reference must also consult (§4.7 "Adapter-backed").
type Resolver struct {
	backend  Backend
	adapters *adapter.Registry
	caller   adapter.Caller
}

// NewResolver builds a Resolver. adapters/caller may be nil if the
// deployment never registers adapters — every adapter-backed check then
// simply reports false.
func NewResolver(backend Backend, adapters *adapter.Registry, caller adapter.Caller) *Resolver {
	return &Resolver{backend: backend, adapters: adapters, caller: caller}
}

func (r *Resolver) adapterOwner(key string) (string, bool) {
	if r.adapters == nil {
		return "", false
	}

	return r.adapters.Check(key)
}
