// Package client implements the distributed List and Dict objects of spec
// §4.7/§4.7b: client-side collections backed by a key in the storage
// backend, with cross-reference rehydration, fallback/adapter read-through,
// and optional per-operation notification callbacks.
package client

// Callbacks is a small set of optional, nil-checked handlers notified after
// a successful mutation. Absent handlers are no-ops, matching how
// yamiddleware composes optional handler chains.
type Callbacks struct {
	OnSetItem func(index int, value any)
	OnDelItem func(index int)
	OnInsert  func(index int, value any)
	OnAppend  func(value any)
}

func (c Callbacks) setItem(index int, value any) {
	if c.OnSetItem != nil {
		c.OnSetItem(index, value)
	}
}

func (c Callbacks) delItem(index int) {
	if c.OnDelItem != nil {
		c.OnDelItem(index)
	}
}

func (c Callbacks) insert(index int, value any) {
	if c.OnInsert != nil {
		c.OnInsert(index, value)
	}
}

func (c Callbacks) append(value any) {
	if c.OnAppend != nil {
		c.OnAppend(value)
	}
}
