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
)

// S6 from spec §8.
func TestPipeline_AllCommandsSucceed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := store.NewStore(store.NewMemoryContainer())
	roomRegistry := rooms.NewRegistry()
	adapterRegistry := adapter.NewRegistry("secret", time.Second)
	d := dispatch.NewDispatcher(backend, roomRegistry, adapterRegistry, nil, nil)

	roomRegistry.Join("room", "sock-1")
	sender := newRecordingSender()

	result := d.Pipeline(ctx, "sock-1", "room", sender, []dispatch.Command{
		{Name: "set", Args: []string{"k1", "v1"}},
		{Name: "set", Args: []string{"k2", "v2"}},
		{Name: "get", Args: []string{"k1"}},
	})

	require.Nil(t, result.Err)
	require.Equal(t, []any{true, true, "v1"}, result.Values)
}

// S6 from spec §8: a failing command mid-pipeline short-circuits, and the
// result only covers commands up to and including the failure.
func TestPipeline_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := store.NewStore(store.NewMemoryContainer())
	roomRegistry := rooms.NewRegistry()
	adapterRegistry := adapter.NewRegistry("secret", time.Second)
	d := dispatch.NewDispatcher(backend, roomRegistry, adapterRegistry, nil, nil)

	roomRegistry.Join("room", "sock-1")
	sender := newRecordingSender()

	result := d.Pipeline(ctx, "sock-1", "room", sender, []dispatch.Command{
		{Name: "set", Args: []string{"k1", "v1"}},
		{Name: "set", Args: []string{"k2"}}, // missing value: DataError
		{Name: "get", Args: []string{"k1"}},
	})

	require.NotNil(t, result.Err)
	require.Len(t, result.Values, 1)
	require.Equal(t, true, result.Values[0])
}

func TestPipeline_RejectsOversizedBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := store.NewStore(store.NewMemoryContainer())
	roomRegistry := rooms.NewRegistry()
	adapterRegistry := adapter.NewRegistry("secret", time.Second)
	d := dispatch.NewDispatcher(backend, roomRegistry, adapterRegistry, nil, nil)

	roomRegistry.Join("room", "sock-1")
	sender := newRecordingSender()

	cmds := make([]dispatch.Command, dispatch.MaxCommandsPerCall+1)
	for i := range cmds {
		cmds[i] = dispatch.Command{Name: "ping"}
	}

	result := d.Pipeline(ctx, "sock-1", "room", sender, cmds)
	require.NotNil(t, result.Err)
	require.Empty(t, result.Values)
}
