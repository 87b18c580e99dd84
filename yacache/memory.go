// Memory is a threadsafe, TTL-aware map-backed cache used as the
// single-process backend for connstate.Machine's state storage and
// yaratelimit.RateLimit's window counters.

package yacache

import (
	"context"
	"net/http"
	"sync"
	"time"
	"weak"

	"github.com/znsocket/znsocket-go/yaerrors"
)

// Memory is a threadsafe, TTL-aware map-backed cache.
type Memory struct {
	inner MemoryContainer // key → *memoryCacheItem
	mutex sync.RWMutex    // guards all access to inner
	done  chan struct{}   // signals the sweeper goroutine to exit on Close
}

// NewMemory builds a new [Memory] cache and starts its background
// sweeper. tickToClean is the sweep interval; choose a value well above
// the typical TTL to amortize the scan cost.
func NewMemory(data MemoryContainer, tickToClean time.Duration) *Memory {
	cache := Memory{
		inner: data,
		done:  make(chan struct{}),
	}

	go cleanup(weak.Make(&cache), tickToClean, cache.done)

	return &cache
}

// cleanup runs in its own goroutine, periodically scanning the map for
// expired items. Complexity is O(items) but spread out over time by the
// ticker, and the weak pointer lets Memory be collected without the
// sweeper pinning it alive forever.
func cleanup(pointer weak.Pointer[Memory], tickToClean time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(tickToClean)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			memory := pointer.Value()
			if memory == nil {
				return
			}

			memory.mutex.Lock()

			for key, value := range memory.inner.Map {
				if value.isExpired() {
					delete(memory.inner.Map, key)
				}
			}

			memory.mutex.Unlock()
		case <-done:
			return
		}
	}
}

// Raw returns the underlying MemoryContainer.
func (m *Memory) Raw() MemoryContainer {
	return m.inner
}

// Set stores key -> value and, if ttl is non-zero, schedules the entry to
// expire at time.Now().Add(ttl).
func (m *Memory) Set(
	_ context.Context,
	key string,
	value string,
	ttl time.Duration,
) yaerrors.Error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if ttl == 0 {
		m.inner.Map[key] = newMemoryCacheItem(value)

		return nil
	}

	m.inner.Map[key] = newMemoryCacheItemEX(value, time.Now().Add(ttl))

	return nil
}

// Get retrieves the value stored under key. An absent or expired-but-
// not-yet-swept key fails with ErrKeyNotFound.
func (m *Memory) Get(
	_ context.Context,
	key string,
) (string, yaerrors.Error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	item, ok := m.inner.Map[key]
	if !ok || item.isExpired() {
		return "", yaerrors.FromError(
			http.StatusInternalServerError,
			ErrKeyNotFound,
			"[MEMORY] failed to get value for key: "+key,
		)
	}

	return item.Value, nil
}

// Exists reports whether all specified keys are currently present and
// unexpired.
func (m *Memory) Exists(
	_ context.Context,
	keys ...string,
) (bool, yaerrors.Error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, key := range keys {
		item, ok := m.inner.Map[key]
		if !ok || item.isExpired() {
			return false, nil
		}
	}

	return true, nil
}

// Del unconditionally removes key. Deleting a missing key is not an
// error.
func (m *Memory) Del(
	_ context.Context,
	key string,
) yaerrors.Error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.inner.Map, key)

	return nil
}

// Ping always succeeds for the in-memory backend.
func (m *Memory) Ping(_ context.Context) yaerrors.Error {
	return nil
}

// Close stops the sweeper and clears the map.
func (m *Memory) Close() yaerrors.Error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	clear(m.inner.Map)

	close(m.done)

	return nil
}

// memoryCacheItem is the atomic unit stored inside the in-memory cache:
// the value together with its TTL metadata. Endless items never expire.
type memoryCacheItem struct {
	Value     string
	ExpiresAt time.Time
	Endless   bool
}

func newMemoryCacheItem(value string) *memoryCacheItem {
	return &memoryCacheItem{Value: value, Endless: true}
}

func newMemoryCacheItemEX(value string, expiresAt time.Time) *memoryCacheItem {
	return &memoryCacheItem{Value: value, ExpiresAt: expiresAt}
}

func (m *memoryCacheItem) isExpired() bool {
	return !m.Endless && time.Now().After(m.ExpiresAt)
}

// MemoryContainer is the concrete map-backed store used by the in-memory
// cache backend: a flat key/value map protected by the owning Memory's
// mutex (it is not itself thread-safe).
type MemoryContainer struct {
	Map map[string]*memoryCacheItem
}

// NewMemoryContainer allocates an empty MemoryContainer.
func NewMemoryContainer() MemoryContainer {
	return MemoryContainer{Map: make(map[string]*memoryCacheItem)}
}
