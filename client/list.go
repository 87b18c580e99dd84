package client

import (
	"context"

	"github.com/znsocket/znsocket-go/adapter"
	"github.com/znsocket/znsocket-go/wireerr"
)

// FallbackPolicy selects how a List/Dict with an empty backing key reads
// through to a fallback key (spec §4.7 "Fallback").
type FallbackPolicy uint8

const (
	// FallbackFrozen reads through to the fallback forever; writes are
	// rejected with FrozenStorageError.
	FallbackFrozen FallbackPolicy = iota
	// FallbackCopy materialises the fallback's contents into this key on
	// the first Set, Insert or Append, after which the fallback is ignored.
	// Reads (Len, Get, Slice) before that go through to the fallback and
	// copy nothing.
	FallbackCopy
)

// List is the distributed sequence object of spec §4.7, backed by key
// "List:<name>" in the storage backend.
type List struct {
	resolver *Resolver
	key      string

	callbacks Callbacks

	fallbackKey    string
	fallbackPolicy FallbackPolicy
}

// NewList wraps key (without the "List:" wire prefix) as a distributed
// list over resolver's backend.
func NewList(resolver *Resolver, key string) *List {
	return &List{resolver: resolver, key: key}
}

// WithCallbacks attaches the optional per-mutation notification handlers.
func (l *List) WithCallbacks(callbacks Callbacks) *List {
	l.callbacks = callbacks

	return l
}

// WithFallback configures a read-through source consulted while this
// list's own key is empty.
func (l *List) WithFallback(key string, policy FallbackPolicy) *List {
	l.fallbackKey = key
	l.fallbackPolicy = policy

	return l
}

// Key returns the bare key name (without the "List:" prefix).
func (l *List) Key() string { return l.key }

func (l *List) adapterOwner() (string, bool) {
	return l.resolver.adapterOwner(l.key)
}

// Len returns the number of elements, consulting the fallback if this
// list's own key is empty.
func (l *List) Len(ctx context.Context) (int, wireerr.Error) {
	if _, ok := l.adapterOwner(); ok {
		value, err := l.resolver.adapters.Call(ctx, l.resolver.caller, l.key, adapter.MethodLen, nil)
		if err != nil {
			return 0, err
		}

		return coerceInt(value), nil
	}

	n, yerr := l.resolver.backend.LLen(ctx, l.key)
	if yerr != nil {
		return 0, wireerr.Response(yerr.UnwrapLastError())
	}

	if n == 0 && l.fallbackKey != "" {
		fallbackLen, yerr := l.resolver.backend.LLen(ctx, l.fallbackKey)
		if yerr == nil {
			return int(fallbackLen), nil
		}
	}

	return int(n), nil
}

// Get returns the element at logical index i, applying Python-style
// negative indexing and rehydrating List:/Dict: cross-references.
func (l *List) Get(ctx context.Context, i int) (any, wireerr.Error) {
	if _, ok := l.adapterOwner(); ok {
		reply, err := l.resolver.adapters.Call(ctx, l.resolver.caller, l.key, adapter.MethodGet, map[string]any{
			"index": i,
		})
		if err != nil {
			return nil, err
		}

		return reply, nil
	}

	target := l.key

	n, yerr := l.resolver.backend.LLen(ctx, l.key)
	if yerr != nil {
		return nil, wireerr.Response(yerr.UnwrapLastError())
	}

	if n == 0 && l.fallbackKey != "" {
		target = l.fallbackKey
	}

	stored, yerr := l.resolver.backend.LIndex(ctx, target, i)
	if yerr != nil {
		return nil, wireerr.Response(yerr.UnwrapLastError())
	}

	return decodeScalar(l.resolver, stored), nil
}

// Slice returns elements [start, stop) using Python's half-open
// convention, converting to the backend's inclusive lrange end index.
func (l *List) Slice(ctx context.Context, start int, stop int) ([]any, wireerr.Error) {
	if stop == 0 {
		return []any{}, nil
	}

	target := l.key

	n, yerr := l.resolver.backend.LLen(ctx, l.key)
	if yerr != nil {
		return nil, wireerr.Response(yerr.UnwrapLastError())
	}

	if n == 0 && l.fallbackKey != "" {
		target = l.fallbackKey
	}

	stored, yerr := l.resolver.backend.LRange(ctx, target, start, stop-1)
	if yerr != nil {
		return nil, wireerr.Response(yerr.UnwrapLastError())
	}

	out := make([]any, len(stored))
	for i, v := range stored {
		out[i] = decodeScalar(l.resolver, v)
	}

	return out, nil
}

// ToSlice materialises the whole list.
func (l *List) ToSlice(ctx context.Context) ([]any, wireerr.Error) {
	n, err := l.Len(ctx)
	if err != nil {
		return nil, err
	}

	return l.Slice(ctx, 0, n)
}

// Set replaces the element at index i. Setting a List/Dict back onto its
// own key (`lst[i] = lst`) is rejected per Design Note "Cyclic references".
func (l *List) Set(ctx context.Context, i int, v any) wireerr.Error {
	if isSelfReference(l, v) {
		return wireerr.Data("cannot set a list element to the list itself")
	}

	if _, ok := l.adapterOwner(); ok {
		return wireerr.Frozen("write rejected: " + l.key + " is adapter-backed")
	}

	if l.fallbackKey != "" && l.fallbackPolicy == FallbackFrozen {
		return wireerr.Frozen("write rejected: " + l.key + " is a frozen fallback view")
	}

	if err := l.materialiseFallbackIfCopy(ctx); err != nil {
		return err
	}

	encoded, err := encodeValue(v)
	if err != nil {
		return err
	}

	if yerr := l.resolver.backend.LSet(ctx, l.key, i, encoded); yerr != nil {
		return wireerr.Response(yerr.UnwrapLastError())
	}

	l.callbacks.setItem(i, v)

	return nil
}

// Del removes the whole list key.
func (l *List) Del(ctx context.Context) wireerr.Error {
	if _, ok := l.adapterOwner(); ok {
		return wireerr.Frozen("write rejected: " + l.key + " is adapter-backed")
	}

	if l.fallbackKey != "" && l.fallbackPolicy == FallbackFrozen {
		return wireerr.Frozen("write rejected: " + l.key + " is a frozen fallback view")
	}

	if _, yerr := l.resolver.backend.Delete(ctx, l.key); yerr != nil {
		return wireerr.Response(yerr.UnwrapLastError())
	}

	return nil
}

// Insert inserts v before logical index i, shifting subsequent elements.
func (l *List) Insert(ctx context.Context, i int, v any) wireerr.Error {
	if isSelfReference(l, v) {
		return wireerr.Data("cannot insert the list into itself")
	}

	if _, ok := l.adapterOwner(); ok {
		return wireerr.Frozen("write rejected: " + l.key + " is adapter-backed")
	}

	if l.fallbackKey != "" && l.fallbackPolicy == FallbackFrozen {
		return wireerr.Frozen("write rejected: " + l.key + " is a frozen fallback view")
	}

	if err := l.materialiseFallbackIfCopy(ctx); err != nil {
		return err
	}

	encoded, err := encodeValue(v)
	if err != nil {
		return err
	}

	tail, yerr := l.resolver.backend.LRange(ctx, l.key, i, -1)
	if yerr != nil {
		return wireerr.Response(yerr.UnwrapLastError())
	}

	if len(tail) == 0 {
		return l.Append(ctx, v)
	}

	if _, yerr := l.resolver.backend.LPop(ctx, l.key, false, len(tail)); yerr != nil {
		return wireerr.Response(yerr.UnwrapLastError())
	}

	if _, yerr := l.resolver.backend.RPush(ctx, l.key, append([]string{encoded}, tail...)...); yerr != nil {
		return wireerr.Response(yerr.UnwrapLastError())
	}

	l.callbacks.insert(i, v)

	return nil
}

// Append adds v at the end of the list.
func (l *List) Append(ctx context.Context, v any) wireerr.Error {
	if isSelfReference(l, v) {
		return wireerr.Data("cannot append the list to itself")
	}

	if _, ok := l.adapterOwner(); ok {
		return wireerr.Frozen("write rejected: " + l.key + " is adapter-backed")
	}

	if l.fallbackKey != "" && l.fallbackPolicy == FallbackFrozen {
		return wireerr.Frozen("write rejected: " + l.key + " is a frozen fallback view")
	}

	if err := l.materialiseFallbackIfCopy(ctx); err != nil {
		return err
	}

	encoded, err := encodeValue(v)
	if err != nil {
		return err
	}

	if _, yerr := l.resolver.backend.RPush(ctx, l.key, encoded); yerr != nil {
		return wireerr.Response(yerr.UnwrapLastError())
	}

	l.callbacks.append(v)

	return nil
}

// Extend appends every value in values, in order.
func (l *List) Extend(ctx context.Context, values ...any) wireerr.Error {
	for _, v := range values {
		if err := l.Append(ctx, v); err != nil {
			return err
		}
	}

	return nil
}

// Pop removes and returns the element at logical index i; a negative i
// counts from the end, so -1 pops the last element.
func (l *List) Pop(ctx context.Context, i int) (any, wireerr.Error) {
	if _, ok := l.adapterOwner(); ok {
		return nil, wireerr.Frozen("write rejected: " + l.key + " is adapter-backed")
	}

	if l.fallbackKey != "" && l.fallbackPolicy == FallbackFrozen {
		return nil, wireerr.Frozen("write rejected: " + l.key + " is a frozen fallback view")
	}

	value, err := l.Get(ctx, i)
	if err != nil {
		return nil, err
	}

	// Overwrite slot i with a marker and remove that marker, so the element
	// at i goes even when an equal value sits earlier in the list.
	const popMarker = "\x00znsocket:pop"
	if yerr := l.resolver.backend.LSet(ctx, l.key, i, popMarker); yerr != nil {
		return nil, wireerr.Response(yerr.UnwrapLastError())
	}

	if _, yerr := l.resolver.backend.LRem(ctx, l.key, 1, popMarker); yerr != nil {
		return nil, wireerr.Response(yerr.UnwrapLastError())
	}

	l.callbacks.delItem(i)

	return value, nil
}

// Copy materialises this list's contents into newKey, returning a List
// bound to it.
func (l *List) Copy(ctx context.Context, newKey string) (*List, wireerr.Error) {
	if _, yerr := l.resolver.backend.Copy(ctx, l.key, newKey, false); yerr != nil {
		return nil, wireerr.Response(yerr.UnwrapLastError())
	}

	return NewList(l.resolver, newKey), nil
}

// Equal compares this list's materialised contents against another List
// or a plain Go slice.
func (l *List) Equal(ctx context.Context, other any) (bool, wireerr.Error) {
	mine, err := l.ToSlice(ctx)
	if err != nil {
		return false, err
	}

	switch typed := other.(type) {
	case *List:
		theirs, err := typed.ToSlice(ctx)
		if err != nil {
			return false, err
		}

		return slicesEqual(mine, theirs), nil
	case []any:
		return slicesEqual(mine, typed), nil
	default:
		return false, nil
	}
}

func (l *List) materialiseFallbackIfCopy(ctx context.Context) wireerr.Error {
	if l.fallbackKey == "" || l.fallbackPolicy != FallbackCopy {
		return nil
	}

	n, yerr := l.resolver.backend.LLen(ctx, l.key)
	if yerr != nil || n > 0 {
		return nil
	}

	fallback, yerr := l.resolver.backend.LRange(ctx, l.fallbackKey, 0, -1)
	if yerr != nil || len(fallback) == 0 {
		return nil
	}

	if _, yerr := l.resolver.backend.RPush(ctx, l.key, fallback...); yerr != nil {
		return wireerr.Response(yerr.UnwrapLastError())
	}

	l.fallbackKey = ""

	return nil
}

func slicesEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func coerceInt(v any) int {
	switch typed := v.(type) {
	case int:
		return typed
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	default:
		return 0
	}
}
