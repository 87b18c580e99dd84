// Package adapter implements the adapter registry of spec §4.4: a client
// can claim ownership of a key and answer RPCs for it (get/set/del/len/...)
// instead of the key living in the Store. Nested ListAdapter children are
// tracked alongside their parent and swept together on owner disconnect.
package adapter

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/znsocket/znsocket-go/threadsafemap"
	"github.com/znsocket/znsocket-go/yaflags"
	"github.com/znsocket/znsocket-go/yahash"
	"github.com/znsocket/znsocket-go/wire"
	"github.com/znsocket/znsocket-go/wireerr"
)

// Method is one adapter-capable operation, packed into a capability
// bitmask so register_adapter only advertises what the owner actually
// implements.
type Method uint8

const (
	MethodGet Method = iota
	MethodSet
	MethodDel
	MethodLen
	MethodKeys
	MethodValues
	MethodFlush
)

// Capabilities is the packed bitmask form of a set of Method values.
type Capabilities uint16

// PackCapabilities builds a Capabilities mask from the methods an owner
// declares when registering.
func PackCapabilities(methods ...Method) (Capabilities, error) {
	bits := make([]uint8, len(methods))
	for i, m := range methods {
		bits[i] = uint8(m)
	}

	packed, err := yaflags.PackBitIndexes[uint16](bits)
	if err != nil {
		return 0, err
	}

	return Capabilities(packed), nil
}

// Supports reports whether method is advertised by c.
func (c Capabilities) Supports(method Method) bool {
	return c&(1<<uint8(method)) != 0
}

// Caller performs the owner round trip for a single adapter RPC. The
// transport layer supplies the concrete implementation (an adapter:call
// emit to the owner socket, awaiting the matching adapter:call:reply).
type Caller interface {
	Call(ctx context.Context, ownerID string, req wire.AdapterCallRequest) (wire.AdapterCallReply, error)
}

// record is everything the registry tracks about one claimed key.
type record struct {
	ownerID string
	caps    Capabilities
	parent  string // non-empty for a ListAdapter child, e.g. "mylist:3"
}

// Registry maps prefixed keys to their owning socket.
type Registry struct {
	records    *threadsafemap.ThreadSafeMap[string, *record]
	correlator yahash.Hash[string, int64]
	callTimeout time.Duration
}

// NewRegistry builds an adapter registry. callTimeout bounds both the
// owner RPC round trip and the validity window of correlation ids minted
// for that call — spec §4.4 specifies a 10s default.
func NewRegistry(secret string, callTimeout time.Duration) *Registry {
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}

	return &Registry{
		records:     threadsafemap.NewThreadSafeMap[string, *record](),
		correlator:  yahash.NewHash(yahash.FNVStringToInt64, secret, callTimeout, 0),
		callTimeout: callTimeout,
	}
}

// Register claims key for ownerID with the given capabilities. A second
// registration of the same key by a different owner fails with KeyError,
// matching "key already owned" from spec §4.4.
func (r *Registry) Register(key string, ownerID string, caps Capabilities) wireerr.Error {
	var outcome wireerr.Error

	r.records.Update(key, func(old *record, exists bool) *record {
		if exists && old.ownerID != ownerID {
			outcome = wireerr.KeyErr("adapter already registered: " + key)

			return old
		}

		return &record{ownerID: ownerID, caps: caps}
	})

	return outcome
}

// RegisterChild claims a nested ListAdapter key ("<parent>:<index>"),
// recording its parent so it is swept together with it.
func (r *Registry) RegisterChild(parentKey, child string, ownerID string, caps Capabilities) wireerr.Error {
	err := r.Register(child, ownerID, caps)
	if err != nil {
		return err
	}

	if rec, ok := r.records.Get(child); ok {
		rec.parent = parentKey
	}

	return nil
}

// Check returns the owner of key, or ("", false) if key is not adapter-backed.
func (r *Registry) Check(key string) (ownerID string, ok bool) {
	rec, exists := r.records.Get(key)
	if !exists {
		return "", false
	}

	return rec.ownerID, true
}

// Exists reports whether key is claimed by any adapter.
func (r *Registry) Exists(key string) bool {
	return r.records.Has(key)
}

// Count returns the number of currently registered adapter keys, for admin
// reporting.
func (r *Registry) Count() int {
	return r.records.Length()
}

// Unregister releases key and every registered child of it (nested
// ListAdapter entries), used both for explicit release and as a helper
// from Disconnect.
func (r *Registry) Unregister(key string) {
	r.records.Delete(key)

	for _, child := range r.records.Keys() {
		rec, ok := r.records.Get(child)
		if ok && rec.parent == key {
			r.records.Delete(child)
		}
	}
}

// Disconnect releases every key (and nested child) owned by ownerID, so a
// later Call against one of these keys fails with KeyError. A call that is
// already waiting on the owner is not cancelled here: it ends when its
// call timeout expires, with TimeoutError.
func (r *Registry) Disconnect(ownerID string) {
	for _, key := range r.records.Keys() {
		rec, ok := r.records.Get(key)
		if ok && rec.ownerID == ownerID {
			r.records.Delete(key)
		}
	}
}

// SignCorrelation mints a time-windowed correlation id from key+method and
// the current call window. Two calls on the same key and method within one
// window get the same id; Call appends a random suffix to keep them apart.
// A reply's id is not checked against its window on receipt.
func (r *Registry) SignCorrelation(key string, method Method) string {
	id := r.correlator.HashWithTime(time.Now(), key, strconv.Itoa(int(method)))

	return formatCorrelation(id)
}

// ValidateCorrelation checks that id was minted for key+method within the
// current call window.
func (r *Registry) ValidateCorrelation(key string, method Method, id int64) bool {
	return r.correlator.Validate(id, key, strconv.Itoa(int(method)))
}

func formatCorrelation(id int64) string {
	if id < 0 {
		id = -id
	}

	return "corr_" + itoaBase36(id)
}

func itoaBase36(n int64) string {
	if n == 0 {
		return "0"
	}

	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"

	var buf [16]byte

	i := len(buf)

	for n > 0 {
		i--
		buf[i] = digits[n%36]
		n /= 36
	}

	return string(buf[i:])
}

// Call performs the owner round trip for method against key, failing
// fast with NotImplementedError if the owner never advertised support for
// it, and KeyError if key is not adapter-backed.
func (r *Registry) Call(
	ctx context.Context,
	caller Caller,
	key string,
	method Method,
	args map[string]any,
) (any, wireerr.Error) {
	rec, ok := r.records.Get(key)
	if !ok {
		return nil, wireerr.KeyErr("no adapter registered for: " + key)
	}

	if !rec.caps.Supports(method) {
		return nil, wireerr.NotImplemented("adapter does not support method on: " + key)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	reply, err := caller.Call(callCtx, rec.ownerID, wire.AdapterCallRequest{
		Key:           key,
		Method:        methodName(method),
		Args:          args,
		CorrelationID: r.SignCorrelation(key, method) + "_" + uuid.NewString(),
	})
	if err != nil {
		if callCtx.Err() != nil {
			return nil, wireerr.Timeout("adapter call timed out: " + key)
		}

		return nil, wireerr.Connection(err.Error())
	}

	if reply.Error != nil {
		return nil, wireerr.Response(reply.Error.Msg)
	}

	return reply.Value, nil
}

func methodName(m Method) string {
	switch m {
	case MethodGet:
		return "get"
	case MethodSet:
		return "set"
	case MethodDel:
		return "del"
	case MethodLen:
		return "len"
	case MethodKeys:
		return "keys"
	case MethodValues:
		return "values"
	case MethodFlush:
		return "flush"
	default:
		return "unknown"
	}
}

// ParseMethod is methodName's inverse, used to turn the capability names
// a register_adapter call declares back into Method values.
func ParseMethod(name string) (Method, bool) {
	switch name {
	case "get":
		return MethodGet, true
	case "set":
		return MethodSet, true
	case "del":
		return MethodDel, true
	case "len":
		return MethodLen, true
	case "keys":
		return MethodKeys, true
	case "values":
		return MethodValues, true
	case "flush":
		return MethodFlush, true
	default:
		return 0, false
	}
}
