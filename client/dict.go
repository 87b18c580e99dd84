package client

import (
	"context"

	"github.com/znsocket/znsocket-go/adapter"
	"github.com/znsocket/znsocket-go/wireerr"
)

// Dict is the distributed mapping object of spec §4.7b, symmetric to
// List and backed by a hash key.
type Dict struct {
	resolver *Resolver
	key      string

	callbacks Callbacks

	fallbackKey    string
	fallbackPolicy FallbackPolicy
}

// NewDict wraps key (without the "Dict:" wire prefix) as a distributed
// dict over resolver's backend.
func NewDict(resolver *Resolver, key string) *Dict {
	return &Dict{resolver: resolver, key: key}
}

// WithCallbacks attaches the optional per-mutation notification handlers.
func (d *Dict) WithCallbacks(callbacks Callbacks) *Dict {
	d.callbacks = callbacks

	return d
}

// WithFallback configures a read-through source consulted while this
// dict's own key is empty.
func (d *Dict) WithFallback(key string, policy FallbackPolicy) *Dict {
	d.fallbackKey = key
	d.fallbackPolicy = policy

	return d
}

// Key returns the bare key name (without the "Dict:" prefix).
func (d *Dict) Key() string { return d.key }

func (d *Dict) adapterOwner() (string, bool) {
	return d.resolver.adapterOwner(d.key)
}

func (d *Dict) target(ctx context.Context) string {
	if d.fallbackKey == "" {
		return d.key
	}

	n, err := d.resolver.backend.HLen(ctx, d.key)
	if err != nil || n > 0 {
		return d.key
	}

	return d.fallbackKey
}

// Len returns the number of fields, consulting the fallback if this
// dict's own key is empty.
func (d *Dict) Len(ctx context.Context) (int, wireerr.Error) {
	if _, ok := d.adapterOwner(); ok {
		value, err := d.resolver.adapters.Call(ctx, d.resolver.caller, d.key, adapter.MethodLen, nil)
		if err != nil {
			return 0, err
		}

		return coerceInt(value), nil
	}

	n, yerr := d.resolver.backend.HLen(ctx, d.target(ctx))
	if yerr != nil {
		return 0, wireerr.Response(yerr.UnwrapLastError())
	}

	return int(n), nil
}

// Get returns field's value, or (nil, false) if absent. Found values that
// are List:/Dict: cross-references rehydrate into nested objects.
func (d *Dict) Get(ctx context.Context, field string) (any, bool, wireerr.Error) {
	if _, ok := d.adapterOwner(); ok {
		reply, err := d.resolver.adapters.Call(ctx, d.resolver.caller, d.key, adapter.MethodGet, map[string]any{
			"field": field,
		})
		if err != nil {
			return nil, false, err
		}

		return reply, reply != nil, nil
	}

	stored, yerr := d.resolver.backend.HGet(ctx, d.target(ctx), field)
	if yerr != nil {
		return nil, false, nil //nolint:nilerr // a missing field is a normal (value, false) result, not a wire error
	}

	return decodeScalar(d.resolver, stored), true, nil
}

// Contains reports whether field is present.
func (d *Dict) Contains(ctx context.Context, field string) (bool, wireerr.Error) {
	_, ok, err := d.Get(ctx, field)

	return ok, err
}

// Keys returns every field name.
func (d *Dict) Keys(ctx context.Context) ([]string, wireerr.Error) {
	keys, yerr := d.resolver.backend.HKeys(ctx, d.target(ctx))
	if yerr != nil {
		return nil, wireerr.Response(yerr.UnwrapLastError())
	}

	return keys, nil
}

// Values returns every field value, rehydrated.
func (d *Dict) Values(ctx context.Context) ([]any, wireerr.Error) {
	vals, yerr := d.resolver.backend.HVals(ctx, d.target(ctx))
	if yerr != nil {
		return nil, wireerr.Response(yerr.UnwrapLastError())
	}

	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = decodeScalar(d.resolver, v)
	}

	return out, nil
}

// Items returns the full field -> rehydrated value mapping.
func (d *Dict) Items(ctx context.Context) (map[string]any, wireerr.Error) {
	all, yerr := d.resolver.backend.HGetAll(ctx, d.target(ctx))
	if yerr != nil {
		return nil, wireerr.Response(yerr.UnwrapLastError())
	}

	out := make(map[string]any, len(all))
	for k, v := range all {
		out[k] = decodeScalar(d.resolver, v)
	}

	return out, nil
}

// Set writes field = v. Setting a Dict/List back onto its own key is
// rejected per Design Note "Cyclic references".
func (d *Dict) Set(ctx context.Context, field string, v any) wireerr.Error {
	if isSelfReference(d, v) {
		return wireerr.Data("cannot set a dict field to the dict itself")
	}

	if _, ok := d.adapterOwner(); ok {
		return wireerr.Frozen("write rejected: " + d.key + " is adapter-backed")
	}

	if d.fallbackKey != "" && d.fallbackPolicy == FallbackFrozen {
		return wireerr.Frozen("write rejected: " + d.key + " is a frozen fallback view")
	}

	if err := d.materialiseFallbackIfCopy(ctx); err != nil {
		return err
	}

	encoded, err := encodeValue(v)
	if err != nil {
		return err
	}

	if _, yerr := d.resolver.backend.HSet(ctx, d.key, field, encoded); yerr != nil {
		return wireerr.Response(yerr.UnwrapLastError())
	}

	d.callbacks.setItem(0, v)

	return nil
}

// Update merges every field in other into this dict (spec's `update`).
func (d *Dict) Update(ctx context.Context, other map[string]any) wireerr.Error {
	for field, v := range other {
		if err := d.Set(ctx, field, v); err != nil {
			return err
		}
	}

	return nil
}

// Or merges other into a copy of this dict and returns the merged items,
// leaving both dicts untouched (Python's `__or__`).
func (d *Dict) Or(ctx context.Context, other map[string]any) (map[string]any, wireerr.Error) {
	mine, err := d.Items(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(mine)+len(other))
	for k, v := range mine {
		out[k] = v
	}

	for k, v := range other {
		out[k] = v
	}

	return out, nil
}

// Del removes field (or the whole dict key if field is empty).
func (d *Dict) Del(ctx context.Context, field string) wireerr.Error {
	if _, ok := d.adapterOwner(); ok {
		return wireerr.Frozen("write rejected: " + d.key + " is adapter-backed")
	}

	if d.fallbackKey != "" && d.fallbackPolicy == FallbackFrozen {
		return wireerr.Frozen("write rejected: " + d.key + " is a frozen fallback view")
	}

	if field == "" {
		if _, yerr := d.resolver.backend.Delete(ctx, d.key); yerr != nil {
			return wireerr.Response(yerr.UnwrapLastError())
		}

		return nil
	}

	if _, yerr := d.resolver.backend.HDel(ctx, d.key, field); yerr != nil {
		return wireerr.Response(yerr.UnwrapLastError())
	}

	d.callbacks.delItem(0)

	return nil
}

// Copy materialises this dict's contents into newKey, returning a Dict
// bound to it.
func (d *Dict) Copy(ctx context.Context, newKey string) (*Dict, wireerr.Error) {
	if _, yerr := d.resolver.backend.Copy(ctx, d.key, newKey, false); yerr != nil {
		return nil, wireerr.Response(yerr.UnwrapLastError())
	}

	return NewDict(d.resolver, newKey), nil
}

// Equal compares this dict's materialised items against another Dict or
// a plain Go map (unordered, per invariant 3).
func (d *Dict) Equal(ctx context.Context, other any) (bool, wireerr.Error) {
	mine, err := d.Items(ctx)
	if err != nil {
		return false, err
	}

	var theirs map[string]any

	switch typed := other.(type) {
	case *Dict:
		theirs, err = typed.Items(ctx)
		if err != nil {
			return false, err
		}
	case map[string]any:
		theirs = typed
	default:
		return false, nil
	}

	if len(mine) != len(theirs) {
		return false, nil
	}

	for k, v := range mine {
		if theirs[k] != v {
			return false, nil
		}
	}

	return true, nil
}

func (d *Dict) materialiseFallbackIfCopy(ctx context.Context) wireerr.Error {
	if d.fallbackKey == "" || d.fallbackPolicy != FallbackCopy {
		return nil
	}

	n, yerr := d.resolver.backend.HLen(ctx, d.key)
	if yerr != nil || n > 0 {
		return nil
	}

	fallback, yerr := d.resolver.backend.HGetAll(ctx, d.fallbackKey)
	if yerr != nil || len(fallback) == 0 {
		return nil
	}

	for field, v := range fallback {
		if _, yerr := d.resolver.backend.HSet(ctx, d.key, field, v); yerr != nil {
			return wireerr.Response(yerr.UnwrapLastError())
		}
	}

	d.fallbackKey = ""

	return nil
}
