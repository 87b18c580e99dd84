// Package refresh builds and validates the refresh event of spec §4.3/§4.9/§6:
// a notification that something changed under a target key, carrying one of
// a key list, an index list, or a slice triple — never more than one shape
// at once.
package refresh

import (
	"github.com/znsocket/znsocket-go/wire"
	"github.com/znsocket/znsocket-go/wireerr"
)

// Keys builds a refresh event reporting that the named fields/elements of
// target changed (hash field names, or list/set member values).
func Keys(target string, keys ...string) wire.RefreshEvent {
	return wire.RefreshEvent{
		Target: target,
		Data:   wire.RefreshData{Keys: keys},
	}
}

// Indices builds a refresh event reporting that specific list indices of
// target changed.
func Indices(target string, indices ...int) wire.RefreshEvent {
	return wire.RefreshEvent{
		Target: target,
		Data:   wire.RefreshData{Indices: indices},
	}
}

// Slice builds a refresh event reporting that a contiguous slice of target
// changed — used for bulk mutations such as extend or flush where naming
// every index individually would be wasteful.
func Slice(target string, start, stop, step int) wire.RefreshEvent {
	return wire.RefreshEvent{
		Target: target,
		Data:   wire.RefreshData{Start: &start, Stop: &stop, Step: &step},
	}
}

// Validate enforces that exactly one of Keys, Indices, or the Start/Stop/Step
// triple is present, per spec §6.
func Validate(event wire.RefreshEvent) wireerr.Error {
	shapes := 0

	if len(event.Data.Keys) > 0 {
		shapes++
	}

	if len(event.Data.Indices) > 0 {
		shapes++
	}

	if event.Data.Start != nil || event.Data.Stop != nil || event.Data.Step != nil {
		shapes++
	}

	if shapes != 1 {
		return wireerr.Data("refresh event must carry exactly one of keys, indices or a slice")
	}

	if event.Target == "" {
		return wireerr.Data("refresh event requires a target")
	}

	return nil
}
