package dispatch_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/znsocket/znsocket-go/adapter"
	"github.com/znsocket/znsocket-go/dispatch"
	"github.com/znsocket/znsocket-go/rooms"
	"github.com/znsocket/znsocket-go/store"
	"github.com/znsocket/znsocket-go/wire"
)

// recordingSender collects every refresh event delivered to it, keyed by
// member, so tests can assert on fan-out (invariant 9: the mutator itself
// never receives its own echo).
type recordingSender struct {
	events map[string][]wire.RefreshEvent
}

func newRecordingSender() *recordingSender {
	return &recordingSender{events: make(map[string][]wire.RefreshEvent)}
}

func (s *recordingSender) SendRefresh(memberID string, event wire.RefreshEvent) error {
	s.events[memberID] = append(s.events[memberID], event)

	return nil
}

func newDispatcher(t *testing.T) (*dispatch.Dispatcher[store.MemoryContainer], *rooms.Registry) {
	t.Helper()

	backend := store.NewStore(store.NewMemoryContainer())
	roomRegistry := rooms.NewRegistry()
	adapterRegistry := adapter.NewRegistry("secret", time.Second)

	d := dispatch.NewDispatcher(backend, roomRegistry, adapterRegistry, nil, nil)

	return d, roomRegistry
}

func TestDispatcher_SetThenGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d, roomRegistry := newDispatcher(t)
	roomRegistry.Join("room", "sock-1")

	sender := newRecordingSender()

	_, err := d.Execute(ctx, "sock-1", "room", sender, dispatch.Command{Name: "set", Args: []string{"k", "v"}})
	require.Nil(t, err)

	value, err := d.Execute(ctx, "sock-1", "room", sender, dispatch.Command{Name: "get", Args: []string{"k"}})
	require.Nil(t, err)
	require.Equal(t, "v", value)
}

// S1 from spec §8.
func TestDispatcher_RPushThenLRangeMatchesScenarioS1(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d, roomRegistry := newDispatcher(t)
	roomRegistry.Join("room", "sock-1")
	sender := newRecordingSender()

	_, err := d.Execute(ctx, "sock-1", "room", sender, dispatch.Command{Name: "rpush", Args: []string{"L", "a"}})
	require.Nil(t, err)

	_, err = d.Execute(ctx, "sock-1", "room", sender, dispatch.Command{Name: "rpush", Args: []string{"L", "b"}})
	require.Nil(t, err)

	length, err := d.Execute(ctx, "sock-1", "room", sender, dispatch.Command{Name: "llen", Args: []string{"L"}})
	require.Nil(t, err)
	require.EqualValues(t, 2, length)

	values, err := d.Execute(ctx, "sock-1", "room", sender, dispatch.Command{
		Name: "lrange",
		Args: []string{"L", "0", "-1"},
	})
	require.Nil(t, err)
	require.Equal(t, []string{"a", "b"}, values)
}

// S2 from spec §8.
func TestDispatcher_HashLifecycleMatchesScenarioS2(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d, roomRegistry := newDispatcher(t)
	roomRegistry.Join("room", "sock-1")
	sender := newRecordingSender()

	_, err := d.Execute(ctx, "sock-1", "room", sender, dispatch.Command{Name: "hset", Args: []string{"H", "f", "v"}})
	require.Nil(t, err)

	value, err := d.Execute(ctx, "sock-1", "room", sender, dispatch.Command{Name: "hget", Args: []string{"H", "f"}})
	require.Nil(t, err)
	require.Equal(t, "v", value)

	deleted, err := d.Execute(ctx, "sock-1", "room", sender, dispatch.Command{Name: "hdel", Args: []string{"H", "f"}})
	require.Nil(t, err)
	require.Equal(t, true, deleted)

	_, getErr := d.Execute(ctx, "sock-1", "room", sender, dispatch.Command{Name: "hget", Args: []string{"H", "f"}})
	require.NotNil(t, getErr)

	exists, err := d.Execute(ctx, "sock-1", "room", sender, dispatch.Command{Name: "exists", Args: []string{"H"}})
	require.Nil(t, err)
	require.Equal(t, false, exists)
}

func TestDispatcher_MutationBroadcastsRefreshExcludingSender(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d, roomRegistry := newDispatcher(t)
	roomRegistry.Join("room", "sock-1")
	roomRegistry.Join("room", "sock-2")
	sender := newRecordingSender()

	_, err := d.Execute(ctx, "sock-1", "room", sender, dispatch.Command{Name: "set", Args: []string{"k", "v"}})
	require.Nil(t, err)

	require.Empty(t, sender.events["sock-1"])
	require.Len(t, sender.events["sock-2"], 1)
	require.Equal(t, "k", sender.events["sock-2"][0].Target)
}

func TestDispatcher_NoBroadcastWhenSoleMember(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d, roomRegistry := newDispatcher(t)
	roomRegistry.Join("room", "sock-1")
	sender := newRecordingSender()

	_, err := d.Execute(ctx, "sock-1", "room", sender, dispatch.Command{Name: "set", Args: []string{"k", "v"}})
	require.Nil(t, err)
	require.Empty(t, sender.events)
}

func TestDispatcher_CopyExistingDestinationReturnsFalseNotError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d, roomRegistry := newDispatcher(t)
	roomRegistry.Join("room", "sock-1")
	sender := newRecordingSender()

	_, err := d.Execute(ctx, "sock-1", "room", sender, dispatch.Command{Name: "set", Args: []string{"src", "1"}})
	require.Nil(t, err)
	_, err = d.Execute(ctx, "sock-1", "room", sender, dispatch.Command{Name: "set", Args: []string{"dst", "2"}})
	require.Nil(t, err)

	ok, err := d.Execute(ctx, "sock-1", "room", sender, dispatch.Command{Name: "copy", Args: []string{"src", "dst"}})
	require.Nil(t, err)
	require.Equal(t, false, ok)
}

func TestDispatcher_UnknownCommandIsNotImplemented(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d, roomRegistry := newDispatcher(t)
	roomRegistry.Join("room", "sock-1")
	sender := newRecordingSender()

	_, err := d.Execute(ctx, "sock-1", "room", sender, dispatch.Command{Name: "bogus", Args: []string{"k"}})
	require.NotNil(t, err)
}

func TestDispatcher_AdapterBackedKeyForwardsWithoutTouchingStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := store.NewStore(store.NewMemoryContainer())
	roomRegistry := rooms.NewRegistry()
	adapterRegistry := adapter.NewRegistry("secret", time.Second)

	caps, err := adapter.PackCapabilities(adapter.MethodGet)
	require.NoError(t, err)
	require.Nil(t, adapterRegistry.Register("owned", "owner-sock", caps))

	caller := &stubCaller{reply: wire.AdapterCallReply{Value: "from-owner"}}
	d := dispatch.NewDispatcher(backend, roomRegistry, adapterRegistry, caller, nil)

	roomRegistry.Join("room", "sock-1")
	sender := newRecordingSender()

	value, derr := d.Execute(ctx, "sock-1", "room", sender, dispatch.Command{Name: "get", Args: []string{"owned"}})
	require.Nil(t, derr)
	require.Equal(t, "from-owner", value)

	exists, existsErr := backend.Exists(ctx, "owned")
	require.Nil(t, existsErr)
	require.False(t, exists)
}

type stubCaller struct {
	reply wire.AdapterCallReply
	err   error
}

func (s *stubCaller) Call(
	_ context.Context,
	_ string,
	_ wire.AdapterCallRequest,
) (wire.AdapterCallReply, error) {
	return s.reply, s.err
}
