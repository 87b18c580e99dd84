// Package segments implements the piece-table copy-on-write list of spec
// §4.8: a Segments value is an ordered list of (start, stop, target)
// tuples over one or more backing sequences, giving O(1) copy-on-write
// list views without touching the origin list.
package segments

import (
	"context"
	"fmt"
	"sync"
)

// Tuple is one piece-table entry: logical indices [Start, Stop) of
// Target belong to this segment.
type Tuple struct {
	Start  int
	Stop   int
	Target string
}

func (t Tuple) length() int {
	return t.Stop - t.Start
}

// Source resolves reads and own-store writes against a target key. The
// dispatch package supplies the concrete implementation: a plain target
// resolves through the Store backend, an adapter-backed target resolves
// through the adapter registry — Segments itself never distinguishes
// between the two (§4.8 "Adapter-origin").
type Source interface {
	Len(ctx context.Context, target string) (int, error)
	Get(ctx context.Context, target string, index int) (string, error)
	// Append writes values to target's own store and returns the index
	// of the first written value.
	Append(ctx context.Context, target string, values ...string) (int, error)
}

// Segments is the piece-table list view of spec §4.8.
type Segments struct {
	mu       sync.RWMutex
	name     string
	ownStore string
	segs     []Tuple
	source   Source
}

// FromList initialises a piece table with a single segment spanning the
// whole of originKey, exactly per spec §4.8 "from_list".
func FromList(ctx context.Context, source Source, name string, originKey string) (*Segments, error) {
	length, err := source.Len(ctx, originKey)
	if err != nil {
		return nil, fmt.Errorf("segments: from_list %q: %w", originKey, err)
	}

	s := &Segments{
		name:     name,
		ownStore: name,
		source:   source,
	}

	if length > 0 {
		s.segs = []Tuple{{Start: 0, Stop: length, Target: originKey}}
	}

	return s, nil
}

// Len returns the logical length — the sum of stop-start across
// segments, never touching the origin list (spec §4.8 "O(1)").
func (s *Segments) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lenLocked()
}

func (s *Segments) lenLocked() int {
	total := 0
	for _, seg := range s.segs {
		total += seg.length()
	}

	return total
}

func normalize(i int, length int) int {
	if i < 0 {
		i += length

		if i < 0 {
			i = 0
		}
	}

	return i
}

// locate finds the segment index and cumulative offset covering logical
// index i. ok is false if i is out of range.
func (s *Segments) locate(i int) (segIdx int, cum int, ok bool) {
	running := 0

	for idx, seg := range s.segs {
		if i < running+seg.length() {
			return idx, running, true
		}

		running += seg.length()
	}

	return 0, 0, false
}

// Get walks segments until the accumulated span covers i, then fetches
// through the covering segment's target (spec §4.8 "get").
func (s *Segments) Get(ctx context.Context, i int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i = normalize(i, s.lenLocked())

	idx, cum, ok := s.locate(i)
	if !ok {
		return "", fmt.Errorf("segments: index %d out of range", i)
	}

	seg := s.segs[idx]
	absolute := seg.Start + (i - cum)

	return s.source.Get(ctx, seg.Target, absolute)
}

// Set replaces the logical element at i. It appends v to the own store,
// then splits the covering segment around the written position using an
// explicit mark-and-splice sequence: the covered segment is first
// replaced with a sentinel placeholder, the replacement segments are
// inserted just before it, and only then is the sentinel dropped. All of
// it runs under the write lock, so a concurrent reader taking the read
// lock never observes a torn segment list (spec §4.8 "set").
func (s *Segments) Set(ctx context.Context, i int, v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	length := s.lenLocked()

	i = normalize(i, length)

	idx, cum, ok := s.locate(i)
	if !ok {
		return fmt.Errorf("segments: index %d out of range", i)
	}

	pos, err := s.source.Append(ctx, s.ownStore, v)
	if err != nil {
		return fmt.Errorf("segments: set %d: %w", i, err)
	}

	seg := s.segs[idx]
	localAbsolute := seg.Start + (i - cum)

	replacement := splitSegmentForWrite(seg, localAbsolute, pos, s.ownStore)

	// mark: replace the covered segment with a sentinel so a concurrent
	// reader mid-walk never sees a partially-spliced list.
	sentinel := Tuple{Start: -1, Stop: -1, Target: ""}
	marked := make([]Tuple, len(s.segs))
	copy(marked, s.segs)
	marked[idx] = sentinel
	s.segs = marked

	// splice: insert the replacement tuples just before the sentinel,
	// then drop the sentinel.
	spliced := make([]Tuple, 0, len(s.segs)+len(replacement))
	spliced = append(spliced, s.segs[:idx]...)
	spliced = append(spliced, replacement...)
	spliced = append(spliced, s.segs[idx:]...)
	s.segs = spliced

	sentinelAt := idx + len(replacement)
	s.segs = append(s.segs[:sentinelAt], s.segs[sentinelAt+1:]...)

	return nil
}

// splitSegmentForWrite builds the (at most three) replacement segments
// for writing one value at absolute index `at` within seg, per the tuple
// shape spec'd in §4.8: (s, at, t), (pos, pos+1, ownStore), (at+1, e, t).
func splitSegmentForWrite(seg Tuple, at int, pos int, ownStore string) []Tuple {
	out := make([]Tuple, 0, 3)

	if at > seg.Start {
		out = append(out, Tuple{Start: seg.Start, Stop: at, Target: seg.Target})
	}

	out = append(out, Tuple{Start: pos, Stop: pos + 1, Target: ownStore})

	if at+1 < seg.Stop {
		out = append(out, Tuple{Start: at + 1, Stop: seg.Stop, Target: seg.Target})
	}

	return out
}

// Insert inserts v at logical index i, shifting subsequent elements. An
// index beyond -length clamps to 0 rather than erroring (DESIGN.md Open
// Question decision).
func (s *Segments) Insert(ctx context.Context, i int, v string) error {
	return s.insertAt(ctx, i, v)
}

// Append inserts v at the end of the logical sequence.
func (s *Segments) Append(ctx context.Context, v string) error {
	s.mu.Lock()
	length := s.lenLocked()
	s.mu.Unlock()

	return s.insertAt(ctx, length, v)
}

// Extend appends every value in values, sharing a single own-store
// range (and therefore a single new segment) instead of one per value.
func (s *Segments) Extend(ctx context.Context, values ...string) error {
	if len(values) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, err := s.source.Append(ctx, s.ownStore, values...)
	if err != nil {
		return fmt.Errorf("segments: extend: %w", err)
	}

	s.segs = append(s.segs, Tuple{Start: pos, Stop: pos + len(values), Target: s.ownStore})

	return nil
}

// insertAt inserts a single value at logical index i; Insert and Append
// both delegate to it once they've resolved their target index.
func (s *Segments) insertAt(ctx context.Context, i int, v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	length := s.lenLocked()
	i = normalize(i, length)

	pos, err := s.source.Append(ctx, s.ownStore, v)
	if err != nil {
		return fmt.Errorf("segments: insert %d: %w", i, err)
	}

	newSeg := Tuple{Start: pos, Stop: pos + 1, Target: s.ownStore}

	if i >= length {
		s.segs = append(s.segs, newSeg)

		return nil
	}

	idx, cum, ok := s.locate(i)
	if !ok {
		s.segs = append(s.segs, newSeg)

		return nil
	}

	seg := s.segs[idx]
	splitAt := seg.Start + (i - cum)

	var left, right []Tuple
	if splitAt > seg.Start {
		left = []Tuple{{Start: seg.Start, Stop: splitAt, Target: seg.Target}}
	}

	right = []Tuple{{Start: splitAt, Stop: seg.Stop, Target: seg.Target}}

	replacement := make([]Tuple, 0, 3)
	replacement = append(replacement, left...)
	replacement = append(replacement, newSeg)
	replacement = append(replacement, right...)

	out := make([]Tuple, 0, len(s.segs)-1+len(replacement))
	out = append(out, s.segs[:idx]...)
	out = append(out, replacement...)
	out = append(out, s.segs[idx+1:]...)
	s.segs = out

	return nil
}

// Delete removes the logical element at i. The spec explicitly accepts
// the resulting segment list going unmerged (§4.8, §9 Open Questions),
// so Delete never coalesces adjacent same-target segments.
func (s *Segments) Delete(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	length := s.lenLocked()
	i = normalize(i, length)

	idx, cum, ok := s.locate(i)
	if !ok {
		return fmt.Errorf("segments: index %d out of range", i)
	}

	seg := s.segs[idx]
	at := seg.Start + (i - cum)

	replacement := make([]Tuple, 0, 2)
	if at > seg.Start {
		replacement = append(replacement, Tuple{Start: seg.Start, Stop: at, Target: seg.Target})
	}

	if at+1 < seg.Stop {
		replacement = append(replacement, Tuple{Start: at + 1, Stop: seg.Stop, Target: seg.Target})
	}

	out := make([]Tuple, 0, len(s.segs)-1+len(replacement))
	out = append(out, s.segs[:idx]...)
	out = append(out, replacement...)
	out = append(out, s.segs[idx+1:]...)
	s.segs = out

	return nil
}

// ToSlice materialises the full logical sequence by walking every
// segment through the source — used for tests and for wire-level reads
// of a Segments value as a plain list.
func (s *Segments) ToSlice(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	segs := make([]Tuple, len(s.segs))
	copy(segs, s.segs)
	s.mu.RUnlock()

	out := make([]string, 0, totalLen(segs))

	for _, seg := range segs {
		for idx := seg.Start; idx < seg.Stop; idx++ {
			value, err := s.source.Get(ctx, seg.Target, idx)
			if err != nil {
				return nil, fmt.Errorf("segments: materialise %q[%d]: %w", seg.Target, idx, err)
			}

			out = append(out, value)
		}
	}

	return out, nil
}

func totalLen(segs []Tuple) int {
	total := 0
	for _, seg := range segs {
		total += seg.length()
	}

	return total
}

// Tuples returns a snapshot of the current segment list, mainly for
// tests asserting on the shape spec §8 invariant 8 cares about.
func (s *Segments) Tuples() []Tuple {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Tuple, len(s.segs))
	copy(out, s.segs)

	return out
}
