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

func newResolver(t *testing.T) *client.Resolver {
	t.Helper()

	backend := store.NewStore(store.NewMemoryContainer())

	return client.NewResolver(backend, nil, nil)
}

// S3 from spec §8.
func TestList_ExtendAndSlice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	lst := client.NewList(newResolver(t), "x")

	require.Nil(t, lst.Extend(ctx, 1, 2, 3, 4))

	reversed, err := lst.Slice(ctx, 0, 4)
	require.Nil(t, err)
	require.Equal(t, []any{"1", "2", "3", "4"}, reversed)

	length, err := lst.Len(ctx)
	require.Nil(t, err)
	require.Equal(t, 4, length)
}

func TestList_SetGetRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	lst := client.NewList(newResolver(t), "x")
	require.Nil(t, lst.Extend(ctx, "a", "b", "c"))

	require.Nil(t, lst.Set(ctx, 1, "B"))

	value, err := lst.Get(ctx, 1)
	require.Nil(t, err)
	require.Equal(t, "B", value)
}

func TestList_RejectsSelfReference(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	lst := client.NewList(newResolver(t), "x")
	require.Nil(t, lst.Append(ctx, "a"))

	err := lst.Set(ctx, 0, lst)
	require.NotNil(t, err)
}

func TestList_CrossReferenceRehydratesAsNestedList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver := newResolver(t)

	inner := client.NewList(resolver, "inner")
	require.Nil(t, inner.Append(ctx, "deep"))

	outer := client.NewList(resolver, "outer")
	require.Nil(t, outer.Append(ctx, inner))

	value, err := outer.Get(ctx, 0)
	require.Nil(t, err)

	nested, ok := value.(*client.List)
	require.True(t, ok)
	require.Equal(t, "inner", nested.Key())

	innerValue, err := nested.Get(ctx, 0)
	require.Nil(t, err)
	require.Equal(t, "deep", innerValue)
}

func TestList_CopyLeavesSourceUnchanged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver := newResolver(t)
	lst := client.NewList(resolver, "src")
	require.Nil(t, lst.Extend(ctx, "a", "b"))

	dst, err := lst.Copy(ctx, "dst")
	require.Nil(t, err)

	srcValues, err := lst.ToSlice(ctx)
	require.Nil(t, err)
	require.Equal(t, []any{"a", "b"}, srcValues)

	dstValues, err := dst.ToSlice(ctx)
	require.Nil(t, err)
	require.Equal(t, []any{"a", "b"}, dstValues)
}

func TestList_FallbackFrozenRejectsWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver := newResolver(t)

	source := client.NewList(resolver, "source")
	require.Nil(t, source.Extend(ctx, "a", "b"))

	view := client.NewList(resolver, "view").WithFallback("source", client.FallbackFrozen)

	length, err := view.Len(ctx)
	require.Nil(t, err)
	require.Equal(t, 2, length)

	writeErr := view.Append(ctx, "c")
	require.NotNil(t, writeErr)
}

func TestList_FallbackCopyMaterialisesOnFirstWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver := newResolver(t)

	source := client.NewList(resolver, "source")
	require.Nil(t, source.Extend(ctx, "a", "b"))

	view := client.NewList(resolver, "view").WithFallback("source", client.FallbackCopy)
	require.Nil(t, view.Append(ctx, "c"))

	values, err := view.ToSlice(ctx)
	require.Nil(t, err)
	require.Equal(t, []any{"a", "b", "c"}, values)
}

func TestList_BlobValueRoundTripsThroughMessagePack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver := newResolver(t)
	lst := client.NewList(resolver, "blobs")

	matrix := [][]float64{{1.5, 2.5}, {3.5, 4.5}}
	require.Nil(t, lst.Append(ctx, matrix))

	stored, err := lst.Get(ctx, 0)
	require.Nil(t, err)

	decoded, decErr := client.DecodeBlob[[][]float64](stored.(string))
	require.Nil(t, decErr)
	require.Equal(t, matrix, decoded)
}

// S8-adjacent: adapter-backed reads forward through the registry instead
// of touching the store.
func TestList_AdapterBackedReadsForward(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := store.NewStore(store.NewMemoryContainer())
	adapters := adapter.NewRegistry("secret", 0)

	caps, err := adapter.PackCapabilities(adapter.MethodGet, adapter.MethodLen)
	require.NoError(t, err)
	require.Nil(t, adapters.Register("owned", "owner-sock", caps))

	caller := &stubListCaller{reply: wire.AdapterCallReply{Value: "remote-value"}}
	resolver := client.NewResolver(backend, adapters, caller)
	lst := client.NewList(resolver, "owned")

	value, derr := lst.Get(ctx, 0)
	require.Nil(t, derr)
	require.Equal(t, "remote-value", value)

	writeErr := lst.Append(ctx, "x")
	require.NotNil(t, writeErr)
}

type stubListCaller struct {
	reply wire.AdapterCallReply
}

func (s *stubListCaller) Call(
	_ context.Context,
	_ string,
	_ wire.AdapterCallRequest,
) (wire.AdapterCallReply, error) {
	return s.reply, nil
}
