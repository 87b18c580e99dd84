package client_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/znsocket/znsocket-go/adapter"
	"github.com/znsocket/znsocket-go/client"
	"github.com/znsocket/znsocket-go/store"
	"github.com/znsocket/znsocket-go/wire"
)

func TestDict_SetGetDel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dict := client.NewDict(newResolver(t), "H")

	require.Nil(t, dict.Set(ctx, "f", "v"))

	value, ok, err := dict.Get(ctx, "f")
	require.Nil(t, err)
	require.True(t, ok)
	require.Equal(t, "v", value)

	require.Nil(t, dict.Del(ctx, "f"))

	_, ok, err = dict.Get(ctx, "f")
	require.Nil(t, err)
	require.False(t, ok)
}

func TestDict_ItemsMatchesInvariant3(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dict := client.NewDict(newResolver(t), "H")

	require.Nil(t, dict.Set(ctx, "a", "1"))
	require.Nil(t, dict.Set(ctx, "b", "2"))

	items, err := dict.Items(ctx)
	require.Nil(t, err)
	require.Equal(t, map[string]any{"a": "1", "b": "2"}, items)
}

func TestDict_CrossReferenceRehydratesAsNestedDict(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver := newResolver(t)

	inner := client.NewDict(resolver, "inner")
	require.Nil(t, inner.Set(ctx, "k", "v"))

	outer := client.NewDict(resolver, "outer")
	require.Nil(t, outer.Set(ctx, "ref", inner))

	value, ok, err := outer.Get(ctx, "ref")
	require.Nil(t, err)
	require.True(t, ok)

	nested, isDict := value.(*client.Dict)
	require.True(t, isDict)
	require.Equal(t, "inner", nested.Key())
}

func TestDict_RejectsSelfReference(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dict := client.NewDict(newResolver(t), "H")

	err := dict.Set(ctx, "self", dict)
	require.NotNil(t, err)
}

// Part of S5 from spec §8: a Dict over an adapter-owned key reports its
// len through the owner and rejects a Set.
func TestDict_AdapterBackedFrozenReads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := store.NewStore(store.NewMemoryContainer())
	adapters := adapter.NewRegistry("secret", 0)

	caps, err := adapter.PackCapabilities(adapter.MethodLen, adapter.MethodKeys)
	require.NoError(t, err)
	require.Nil(t, adapters.Register("H", "owner-sock", caps))

	caller := &stubListCaller{reply: wire.AdapterCallReply{Value: int64(3)}}
	resolver := client.NewResolver(backend, adapters, caller)
	dict := client.NewDict(resolver, "H")

	length, lenErr := dict.Len(ctx)
	require.Nil(t, lenErr)
	require.Equal(t, 3, length)

	setErr := dict.Set(ctx, "a", "1")
	require.NotNil(t, setErr)
}

func TestDict_Or(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dict := client.NewDict(newResolver(t), "H")
	require.Nil(t, dict.Set(ctx, "a", "1"))

	merged, err := dict.Or(ctx, map[string]any{"b": "2"})
	require.Nil(t, err)
	require.Equal(t, map[string]any{"a": "1", "b": "2"}, merged)

	// Or must not mutate the receiver.
	items, err := dict.Items(ctx)
	require.Nil(t, err)
	require.Equal(t, map[string]any{"a": "1"}, items)
}
