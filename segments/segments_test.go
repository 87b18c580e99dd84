package segments_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/znsocket/znsocket-go/segments"
)

// memorySource is a minimal in-process Source: each target is a plain
// slice of strings, good enough to exercise the piece-table algorithm in
// isolation from the real Store/Redis backends.
type memorySource struct {
	mu   sync.Mutex
	data map[string][]string
}

func newMemorySource() *memorySource {
	return &memorySource{data: make(map[string][]string)}
}

func (m *memorySource) seed(target string, values ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[target] = append([]string{}, values...)
}

func (m *memorySource) Len(_ context.Context, target string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.data[target]), nil
}

func (m *memorySource) Get(_ context.Context, target string, index int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	values := m.data[target]
	if index < 0 || index >= len(values) {
		return "", fmt.Errorf("memorySource: index %d out of range for %q", index, target)
	}

	return values[index], nil
}

func (m *memorySource) Append(_ context.Context, target string, values ...string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos := len(m.data[target])
	m.data[target] = append(m.data[target], values...)

	return pos, nil
}

func TestSegments_FromListCopiesOriginAsSingleSegment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newMemorySource()
	src.seed("lst", "0", "1", "2", "3", "4")

	seg, err := segments.FromList(ctx, src, "s", "lst")
	require.NoError(t, err)
	require.Equal(t, 5, seg.Len())

	values, err := seg.ToSlice(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"0", "1", "2", "3", "4"}, values)
}

// S4 from spec §8: setting through Segments never mutates the origin.
func TestSegments_SetDoesNotMutateOrigin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newMemorySource()
	src.seed("lst", "0", "1", "2", "3", "4")

	seg, err := segments.FromList(ctx, src, "s", "lst")
	require.NoError(t, err)

	require.NoError(t, seg.Set(ctx, 2, "X"))

	values, err := seg.ToSlice(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"0", "1", "X", "3", "4"}, values)

	origin, err := src.Len(ctx, "lst")
	require.NoError(t, err)
	require.Equal(t, 5, origin)

	originValues := make([]string, origin)
	for i := range originValues {
		originValues[i], _ = src.Get(ctx, "lst", i)
	}

	require.Equal(t, []string{"0", "1", "2", "3", "4"}, originValues)
}

func TestSegments_SetSplitsSegmentIntoThreeTuples(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newMemorySource()
	src.seed("lst", "a", "b", "c", "d", "e")

	seg, err := segments.FromList(ctx, src, "s", "lst")
	require.NoError(t, err)

	require.NoError(t, seg.Set(ctx, 2, "Z"))

	tuples := seg.Tuples()
	require.Len(t, tuples, 3)
	require.Equal(t, "lst", tuples[0].Target)
	require.Equal(t, "s", tuples[1].Target)
	require.Equal(t, "lst", tuples[2].Target)
}

func TestSegments_InsertShiftsSubsequentElements(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newMemorySource()
	src.seed("lst", "a", "b", "c")

	seg, err := segments.FromList(ctx, src, "s", "lst")
	require.NoError(t, err)

	require.NoError(t, seg.Insert(ctx, 1, "X"))

	values, err := seg.ToSlice(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "X", "b", "c"}, values)
}

func TestSegments_AppendAndExtend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newMemorySource()

	seg, err := segments.FromList(ctx, src, "s", "lst")
	require.NoError(t, err)
	require.Equal(t, 0, seg.Len())

	require.NoError(t, seg.Append(ctx, "a"))
	require.NoError(t, seg.Extend(ctx, "b", "c"))

	values, err := seg.ToSlice(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, values)
}

func TestSegments_DeleteAcceptsUnmergedSegments(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newMemorySource()
	src.seed("lst", "a", "b", "c", "d", "e")

	seg, err := segments.FromList(ctx, src, "s", "lst")
	require.NoError(t, err)

	require.NoError(t, seg.Delete(2))

	values, err := seg.ToSlice(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "d", "e"}, values)
	require.Equal(t, 4, seg.Len())

	// Delete splits a single segment into two segments over the same
	// target — the spec explicitly accepts this unmerged shape.
	tuples := seg.Tuples()
	require.Len(t, tuples, 2)
	require.Equal(t, "lst", tuples[0].Target)
	require.Equal(t, "lst", tuples[1].Target)
}

// DESIGN.md Open Question decision: an insert index beyond -length
// clamps to 0 instead of erroring.
func TestSegments_InsertNegativeIndexBeyondLengthClampsToHead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newMemorySource()
	src.seed("lst", "a", "b")

	seg, err := segments.FromList(ctx, src, "s", "lst")
	require.NoError(t, err)

	require.NoError(t, seg.Insert(ctx, -100, "X"))

	values, err := seg.ToSlice(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"X", "a", "b"}, values)
}

// Invariant 8 (§8): len(seg) == sum(stop-start) and list(seg) equals a
// plain list put through the same sequence of operations.
func TestSegments_MatchesPlainListUnderMixedOperations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newMemorySource()
	src.seed("lst", "0", "1", "2", "3", "4")

	seg, err := segments.FromList(ctx, src, "s", "lst")
	require.NoError(t, err)

	plain := []string{"0", "1", "2", "3", "4"}

	require.NoError(t, seg.Set(ctx, 1, "B"))
	plain[1] = "B"

	require.NoError(t, seg.Insert(ctx, 3, "N"))
	plain = append(plain[:3], append([]string{"N"}, plain[3:]...)...)

	require.NoError(t, seg.Append(ctx, "tail"))
	plain = append(plain, "tail")

	require.NoError(t, seg.Delete(0))
	plain = plain[1:]

	values, err := seg.ToSlice(ctx)
	require.NoError(t, err)

	if diff := cmp.Diff(plain, values); diff != "" {
		t.Fatalf("segments diverged from plain list (-want +got):\n%s", diff)
	}

	sum := 0
	for _, tup := range seg.Tuples() {
		sum += tup.Stop - tup.Start
	}

	require.Equal(t, seg.Len(), sum)
	require.Equal(t, len(plain), seg.Len())
}
