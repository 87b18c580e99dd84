package store

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/znsocket/znsocket-go/threadsafemap"
	"github.com/znsocket/znsocket-go/yaerrors"
	"github.com/znsocket/znsocket-go/yathreadsafeset"
)

// MemoryContainer is the concrete map the in-memory Store backend wraps;
// it exists (rather than a bare *threadsafemap.ThreadSafeMap) so it can
// satisfy the Container type-set the same way yacache.MemoryContainer does.
type MemoryContainer struct {
	data *threadsafemap.ThreadSafeMap[string, *Value]
}

// NewMemoryContainer allocates an empty MemoryContainer.
func NewMemoryContainer() MemoryContainer {
	return MemoryContainer{data: threadsafemap.NewThreadSafeMap[string, *Value]()}
}

// Memory is the in-memory Store backend: a single ThreadSafeMap keyed by
// the Redis-subset key space, with a background sweeper that evicts
// TTL-expired string values on a monotonic clock.
type Memory struct {
	inner MemoryContainer
	stop  chan struct{}
}

// NewMemory wraps data and starts a sweeper that runs every tick.
func NewMemory(data MemoryContainer, tick time.Duration) *Memory {
	m := &Memory{inner: data, stop: make(chan struct{})}

	go m.sweep(tick)

	return m
}

func (m *Memory) sweep(tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, key := range m.inner.data.Keys() {
				value, ok := m.inner.data.Get(key)
				if ok && value.isExpired() {
					m.inner.data.Delete(key)
				}
			}
		case <-m.stop:
			return
		}
	}
}

// Raw returns the underlying MemoryContainer.
func (m *Memory) Raw() MemoryContainer {
	return m.inner
}

func wrongType(msg string) yaerrors.Error {
	return yaerrors.FromError(http.StatusBadRequest, ErrWrongType, msg)
}

func noSuchKey(msg string) yaerrors.Error {
	return yaerrors.FromError(http.StatusNotFound, ErrNoSuchKey, msg)
}

// get returns the live (non-expired) value for key, or nil if absent.
func (m *Memory) get(key string) *Value {
	value, ok := m.inner.data.Get(key)
	if !ok || value.isExpired() {
		return nil
	}

	return value
}

func (m *Memory) Set(
	_ context.Context,
	key string,
	value string,
	opts SetOptions,
) (bool, yaerrors.Error) {
	existing := m.get(key)

	if opts.NX && existing != nil {
		return false, nil
	}

	if opts.XX && existing == nil {
		return false, nil
	}

	next := &Value{Kind: KindString, Str: value, Endless: opts.EX == 0}
	if opts.EX > 0 {
		next.ExpiresAt = time.Now().Add(opts.EX)
	}

	m.inner.data.Set(key, next)

	return true, nil
}

func (m *Memory) Get(_ context.Context, key string) (string, yaerrors.Error) {
	value := m.get(key)
	if value == nil {
		return "", noSuchKey("get: " + key)
	}

	if value.Kind != KindString {
		return "", wrongType("get: " + key)
	}

	return value.Str, nil
}

func (m *Memory) Incr(_ context.Context, key string, by int64) (int64, yaerrors.Error) {
	var result int64

	var outerErr yaerrors.Error

	m.inner.data.Update(key, func(old *Value, exists bool) *Value {
		if !exists || old.isExpired() {
			result = by
			outerErr = nil

			return &Value{Kind: KindString, Str: strconv.FormatInt(by, 10), Endless: true}
		}

		if old.Kind != KindString {
			outerErr = wrongType("incr: " + key)

			return old
		}

		current, err := strconv.ParseInt(old.Str, 10, 64)
		if err != nil {
			outerErr = yaerrors.FromError(http.StatusBadRequest, ErrNotAnInteger, "incr: "+key)

			return old
		}

		result = current + by

		return &Value{
			Kind:      KindString,
			Str:       strconv.FormatInt(result, 10),
			ExpiresAt: old.ExpiresAt,
			Endless:   old.Endless,
		}
	})

	if outerErr != nil {
		return 0, outerErr
	}

	return result, nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, yaerrors.Error) {
	return m.get(key) != nil, nil
}

func (m *Memory) Delete(_ context.Context, key string) (bool, yaerrors.Error) {
	_, ok := m.inner.data.Pop(key)

	return ok, nil
}

func (m *Memory) Copy(
	_ context.Context,
	src string,
	dst string,
	replace bool,
) (bool, yaerrors.Error) {
	source := m.get(src)
	if source == nil {
		return false, noSuchKey("copy: " + src)
	}

	if !replace && m.get(dst) != nil {
		return false, yaerrors.FromError(http.StatusConflict, ErrDestExists, "copy: "+dst)
	}

	m.inner.data.Set(dst, source.clone())

	return true, nil
}

func (m *Memory) hashFor(key string, createIfAbsent bool) (*Value, yaerrors.Error) {
	value := m.get(key)
	if value == nil {
		if !createIfAbsent {
			return nil, noSuchKey("hash: " + key)
		}

		value = &Value{Kind: KindHash, Hash: make(map[string]string), Endless: true}
		m.inner.data.Set(key, value)

		return value, nil
	}

	if value.Kind != KindHash {
		return nil, wrongType("hash: " + key)
	}

	return value, nil
}

func (m *Memory) HSet(
	_ context.Context,
	key string,
	field string,
	value string,
) (bool, yaerrors.Error) {
	hash, err := m.hashFor(key, true)
	if err != nil {
		return false, err
	}

	_, existed := hash.Hash[field]
	hash.Hash[field] = value

	return !existed, nil
}

func (m *Memory) HGet(_ context.Context, key string, field string) (string, yaerrors.Error) {
	hash, err := m.hashFor(key, false)
	if err != nil {
		return "", err
	}

	value, ok := hash.Hash[field]
	if !ok {
		return "", noSuchKey("hget: " + key + " " + field)
	}

	return value, nil
}

func (m *Memory) HMGet(
	_ context.Context,
	key string,
	fields ...string,
) (map[string]*string, yaerrors.Error) {
	hash, err := m.hashFor(key, false)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*string, len(fields))

	for _, field := range fields {
		if value, ok := hash.Hash[field]; ok {
			v := value
			out[field] = &v
		} else {
			out[field] = nil
		}
	}

	return out, nil
}

func (m *Memory) HKeys(_ context.Context, key string) ([]string, yaerrors.Error) {
	hash, err := m.hashFor(key, false)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(hash.Hash))
	for field := range hash.Hash {
		out = append(out, field)
	}

	return out, nil
}

func (m *Memory) HVals(_ context.Context, key string) ([]string, yaerrors.Error) {
	hash, err := m.hashFor(key, false)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(hash.Hash))
	for _, value := range hash.Hash {
		out = append(out, value)
	}

	return out, nil
}

func (m *Memory) HGetAll(_ context.Context, key string) (map[string]string, yaerrors.Error) {
	hash, err := m.hashFor(key, false)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(hash.Hash))
	for field, value := range hash.Hash {
		out[field] = value
	}

	return out, nil
}

func (m *Memory) HExists(_ context.Context, key string, field string) (bool, yaerrors.Error) {
	hash, err := m.hashFor(key, false)
	if err != nil {
		if err.Code() == http.StatusNotFound {
			return false, nil
		}

		return false, err
	}

	_, ok := hash.Hash[field]

	return ok, nil
}

func (m *Memory) HDel(_ context.Context, key string, field string) (bool, yaerrors.Error) {
	hash, err := m.hashFor(key, false)
	if err != nil {
		if err.Code() == http.StatusNotFound {
			return false, nil
		}

		return false, err
	}

	_, existed := hash.Hash[field]
	delete(hash.Hash, field)

	if len(hash.Hash) == 0 {
		m.inner.data.Delete(key)
	}

	return existed, nil
}

func (m *Memory) HLen(_ context.Context, key string) (int64, yaerrors.Error) {
	hash, err := m.hashFor(key, false)
	if err != nil {
		if err.Code() == http.StatusNotFound {
			return 0, nil
		}

		return 0, err
	}

	return int64(len(hash.Hash)), nil
}

func (m *Memory) listFor(key string, createIfAbsent bool) (*Value, yaerrors.Error) {
	value := m.get(key)
	if value == nil {
		if !createIfAbsent {
			return nil, noSuchKey("list: " + key)
		}

		value = &Value{Kind: KindList, Endless: true}
		m.inner.data.Set(key, value)

		return value, nil
	}

	if value.Kind != KindList {
		return nil, wrongType("list: " + key)
	}

	return value, nil
}

func (m *Memory) LLen(_ context.Context, key string) (int64, yaerrors.Error) {
	list, err := m.listFor(key, false)
	if err != nil {
		if err.Code() == http.StatusNotFound {
			return 0, nil
		}

		return 0, err
	}

	return int64(len(list.List)), nil
}

func (m *Memory) RPush(
	_ context.Context,
	key string,
	values ...string,
) (int64, yaerrors.Error) {
	list, err := m.listFor(key, true)
	if err != nil {
		return 0, err
	}

	list.List = append(list.List, values...)

	return int64(len(list.List)), nil
}

func (m *Memory) LPush(
	_ context.Context,
	key string,
	values ...string,
) (int64, yaerrors.Error) {
	list, err := m.listFor(key, true)
	if err != nil {
		return 0, err
	}

	prefix := make([]string, len(values))
	for i, v := range values {
		prefix[len(values)-1-i] = v
	}

	list.List = append(prefix, list.List...)

	return int64(len(list.List)), nil
}

// normalizeIndex resolves a possibly-negative Redis-style index against
// length, per the Open Question decision recorded in DESIGN.md: indices
// past -length clamp to 0 rather than erroring.
func normalizeIndex(i int, length int) int {
	if i < 0 {
		i += length

		if i < 0 {
			i = 0
		}
	}

	return i
}

func (m *Memory) LIndex(_ context.Context, key string, index int) (string, yaerrors.Error) {
	list, err := m.listFor(key, false)
	if err != nil {
		return "", err
	}

	i := normalizeIndex(index, len(list.List))
	if i >= len(list.List) {
		return "", yaerrors.FromError(http.StatusBadRequest, ErrIndexOutOfRange, "lindex: "+key)
	}

	return list.List[i], nil
}

func (m *Memory) LRange(
	_ context.Context,
	key string,
	start int,
	stop int,
) ([]string, yaerrors.Error) {
	list, err := m.listFor(key, false)
	if err != nil {
		if err.Code() == http.StatusNotFound {
			return nil, nil
		}

		return nil, err
	}

	length := len(list.List)
	from := normalizeIndex(start, length)
	to := normalizeIndex(stop, length)

	if to >= length {
		to = length - 1
	}

	if from > to || from >= length {
		return []string{}, nil
	}

	out := make([]string, to-from+1)
	copy(out, list.List[from:to+1])

	return out, nil
}

func (m *Memory) LSet(_ context.Context, key string, index int, value string) yaerrors.Error {
	list, err := m.listFor(key, false)
	if err != nil {
		return err
	}

	i := normalizeIndex(index, len(list.List))
	if i >= len(list.List) {
		return yaerrors.FromError(http.StatusBadRequest, ErrIndexOutOfRange, "lset: "+key)
	}

	list.List[i] = value

	return nil
}

func (m *Memory) LRem(
	_ context.Context,
	key string,
	count int,
	value string,
) (int64, yaerrors.Error) {
	list, err := m.listFor(key, false)
	if err != nil {
		if err.Code() == http.StatusNotFound {
			return 0, nil
		}

		return 0, err
	}

	out := make([]string, 0, len(list.List))

	var removed int64

	switch {
	case count == 0:
		for _, v := range list.List {
			if v == value {
				removed++

				continue
			}

			out = append(out, v)
		}
	case count > 0:
		for _, v := range list.List {
			if v == value && removed < int64(count) {
				removed++

				continue
			}

			out = append(out, v)
		}
	default:
		for i := len(list.List) - 1; i >= 0; i-- {
			v := list.List[i]
			if v == value && removed < int64(-count) {
				removed++

				continue
			}

			out = append([]string{v}, out...)
		}
	}

	list.List = out

	if len(list.List) == 0 {
		m.inner.data.Delete(key)
	}

	return removed, nil
}

func (m *Memory) LInsert(
	_ context.Context,
	key string,
	where Where,
	pivot string,
	value string,
) (int64, yaerrors.Error) {
	list, err := m.listFor(key, false)
	if err != nil {
		if err.Code() == http.StatusNotFound {
			return 0, nil
		}

		return 0, err
	}

	idx := -1

	for i, v := range list.List {
		if v == pivot {
			idx = i

			break
		}
	}

	if idx == -1 {
		return -1, nil
	}

	insertAt := idx
	if where == After {
		insertAt = idx + 1
	}

	out := make([]string, 0, len(list.List)+1)
	out = append(out, list.List[:insertAt]...)
	out = append(out, value)
	out = append(out, list.List[insertAt:]...)
	list.List = out

	return int64(len(list.List)), nil
}

func (m *Memory) LPop(
	_ context.Context,
	key string,
	fromLeft bool,
	count int,
) ([]string, yaerrors.Error) {
	list, err := m.listFor(key, false)
	if err != nil {
		if err.Code() == http.StatusNotFound {
			return nil, noSuchKey("lpop: " + key)
		}

		return nil, err
	}

	if count <= 0 {
		count = 1
	}

	if count > len(list.List) {
		count = len(list.List)
	}

	var popped []string

	if fromLeft {
		popped = append(popped, list.List[:count]...)
		list.List = list.List[count:]
	} else {
		start := len(list.List) - count
		popped = append(popped, list.List[start:]...)
		list.List = list.List[:start]
	}

	if len(list.List) == 0 {
		m.inner.data.Delete(key)
	}

	return popped, nil
}

func (m *Memory) setFor(key string, createIfAbsent bool) (*Value, yaerrors.Error) {
	value := m.get(key)
	if value == nil {
		if !createIfAbsent {
			return nil, noSuchKey("set: " + key)
		}

		value = &Value{Kind: KindSet, Set: yathreadsafeset.NewThreadSafeSet[string](), Endless: true}
		m.inner.data.Set(key, value)

		return value, nil
	}

	if value.Kind != KindSet {
		return nil, wrongType("set: " + key)
	}

	return value, nil
}

func (m *Memory) SAdd(
	_ context.Context,
	key string,
	members ...string,
) (int64, yaerrors.Error) {
	set, err := m.setFor(key, true)
	if err != nil {
		return 0, err
	}

	var added int64

	for _, member := range members {
		if !set.Set.Has(member) {
			set.Set.Set(member)
			added++
		}
	}

	return added, nil
}

func (m *Memory) SRem(
	_ context.Context,
	key string,
	members ...string,
) (int64, yaerrors.Error) {
	set, err := m.setFor(key, false)
	if err != nil {
		if err.Code() == http.StatusNotFound {
			return 0, nil
		}

		return 0, err
	}

	var removed int64

	for _, member := range members {
		if set.Set.Has(member) {
			set.Set.Delete(member)
			removed++
		}
	}

	if set.Set.Length() == 0 {
		m.inner.data.Delete(key)
	}

	return removed, nil
}

func (m *Memory) SMembers(_ context.Context, key string) ([]string, yaerrors.Error) {
	set, err := m.setFor(key, false)
	if err != nil {
		if err.Code() == http.StatusNotFound {
			return []string{}, nil
		}

		return nil, err
	}

	out := make([]string, 0, set.Set.Length())
	set.Set.Iterate(func(member string) {
		out = append(out, member)
	})

	return out, nil
}

func (m *Memory) SCard(_ context.Context, key string) (int64, yaerrors.Error) {
	set, err := m.setFor(key, false)
	if err != nil {
		if err.Code() == http.StatusNotFound {
			return 0, nil
		}

		return 0, err
	}

	return int64(set.Set.Length()), nil
}

func (m *Memory) FlushAll(_ context.Context) yaerrors.Error {
	m.inner.data.Clear()

	return nil
}

func (m *Memory) Ping(_ context.Context) yaerrors.Error {
	return nil
}

func (m *Memory) Close() yaerrors.Error {
	close(m.stop)

	return nil
}
