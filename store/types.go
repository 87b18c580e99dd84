// Package store implements the Redis-subset command executor of spec §4.1:
// string/hash/list/set values held behind a single Store interface, with an
// in-memory backend (Memory) and a Redis-backed backend (Redis) sharing the
// same contract — the dual-backend shape mirrors yacache.Cache[T Container].
package store

import (
	"time"

	"github.com/znsocket/znsocket-go/yathreadsafeset"
)

// Kind tags the discriminated union held under a single key (Design Note
// "Dynamic typing → tagged sum").
type Kind uint8

const (
	KindNone Kind = iota
	KindString
	KindHash
	KindList
	KindSet
)

// Value is the tagged union of everything a key can hold. Only one of
// Str/Hash/List/Set is meaningful, selected by Kind.
type Value struct {
	Kind Kind

	Str string

	Hash map[string]string

	List []string

	Set *yathreadsafeset.ThreadSafeSet[string]

	ExpiresAt time.Time
	Endless   bool
}

func (v *Value) isExpired() bool {
	if v == nil || v.Endless {
		return false
	}

	return !v.ExpiresAt.IsZero() && time.Now().After(v.ExpiresAt)
}

// clone performs the deep copy required by invariant 3 (§3): the caller
// must never be able to mutate stored state through a returned container.
func (v *Value) clone() *Value {
	if v == nil {
		return nil
	}

	out := &Value{Kind: v.Kind, Str: v.Str, ExpiresAt: v.ExpiresAt, Endless: v.Endless}

	if v.Hash != nil {
		out.Hash = make(map[string]string, len(v.Hash))
		for k, val := range v.Hash {
			out.Hash[k] = val
		}
	}

	if v.List != nil {
		out.List = make([]string, len(v.List))
		copy(out.List, v.List)
	}

	if v.Set != nil {
		out.Set = v.Set.Copy()
	}

	return out
}

// Where selects the pivot side for LINSERT.
type Where uint8

const (
	Before Where = iota
	After
)

// SetOptions configures the string SET command (spec §4.1).
type SetOptions struct {
	// EX is the optional TTL; zero means no expiry.
	EX time.Duration
	// NX requires the key to be absent.
	NX bool
	// XX requires the key to already be present.
	XX bool
}
